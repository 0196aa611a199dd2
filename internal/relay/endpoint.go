package relay

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
)

// EnvEndpoint overrides the configured relay endpoint.
const EnvEndpoint = "DEVSYSLOG_ENDPOINT"

// SocketBaseName is the default relay socket filename.
const SocketBaseName = "devsyslog.sock"

// ResolveEndpoint picks the relay address.
// Order of precedence (first wins):
// 1) explicit (command line)
// 2) DEVSYSLOG_ENDPOINT
// 3) configured (config file)
// 4) DefaultSocketPath
func ResolveEndpoint(explicit, configured string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvEndpoint); env != "" {
		return env
	}
	if configured != "" {
		return configured
	}
	return "unix://" + DefaultSocketPath()
}

// DefaultSocketPath is where a local forwarder is expected to listen.
// On linux it lives in the per-user runtime dir, elsewhere in /tmp to stay
// under the sun_path length limit.
func DefaultSocketPath() string {
	uid := currentUID()
	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
			return filepath.Join(v, SocketBaseName)
		}
		return filepath.Join("/run/user", uid, SocketBaseName)
	}
	return filepath.Join("/tmp", "devsyslog-"+uid+".sock")
}

// splitEndpoint maps an endpoint string to a net.Dial network and address.
// "unix:///path" and bare absolute paths use unix sockets, "tcp://host:port"
// and "host:port" use tcp.
func splitEndpoint(endpoint string) (network, address string) {
	if rest, ok := strings.CutPrefix(endpoint, "unix://"); ok {
		return "unix", rest
	}
	if rest, ok := strings.CutPrefix(endpoint, "tcp://"); ok {
		return "tcp", rest
	}
	if strings.HasPrefix(endpoint, "/") {
		return "unix", endpoint
	}
	return "tcp", endpoint
}

func currentUID() string {
	u, err := user.Current()
	if err == nil && u != nil && u.Uid != "" {
		return u.Uid
	}
	return "0"
}
