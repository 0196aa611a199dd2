package filter

import (
	"errors"
	"strings"
)

// QuietList names the chatty system processes hidden by --quiet.
const QuietList = "CircleJoinRequested|CommCenter|HeuristicInterpreter|MobileMail|PowerUIAgent|ProtectedCloudKeySyncing|SpringBoard|UserEventAgent|WirelessRadioManagerd|accessoryd|accountsd|aggregated|analyticsd|appstored|apsd|assetsd|assistant_service|backboardd|biometrickitd|bluetoothd|calaccessd|callservicesd|cloudd|com.apple.Safari.SafeBrowsing.Service|contextstored|corecaptured|coreduetd|corespeechd|cdpd|dasd|dataaccessd|distnoted|dprivacyd|duetexpertd|findmydeviced|fmfd|fmflocatord|gpsd|healthd|homed|identityservicesd|imagent|itunescloudd|itunesstored|kernel|locationd|maild|mDNSResponder|mediaremoted|mediaserverd|mobileassetd|nanoregistryd|nanotimekitcompaniond|navd|nsurlsessiond|passd|pasted|photoanalysisd|powerd|powerlogHelperd|ptpd|rapportd|remindd|routined|runningboardd|searchd|sharingd|suggestd|symptomsd|timed|thermalmonitord|useractivityd|vmd|wifid|wirelessproxd"

// KernelProcess is the process name the device uses for kernel messages.
const KernelProcess = "kernel"

// Errors returned for invalid filter switches.
var (
	ErrEmptyFilter          = errors.New("filter string must not be empty")
	ErrKernelConflict       = errors.New("-k and -K cannot be used together")
	ErrIncludeExclude       = errors.New("-p and -e/-q cannot be used together")
	ErrIncludeExcludeKernel = errors.New("-p and -K cannot be used together")
)

// ProcessOptions collects the process-related command line switches.
type ProcessOptions struct {
	Include []string
	Exclude []string
	Quiet   bool
	// QuietExtra is appended to QuietList when Quiet is set.
	QuietExtra []string
	Kernel     bool
	NoKernel   bool
}

// Apply validates the switch combination and loads the process filters into r.
func (o ProcessOptions) Apply(r *Registry) error {
	if o.Kernel && o.NoKernel {
		return ErrKernelConflict
	}
	excluding := len(o.Exclude) > 0 || o.Quiet
	including := len(o.Include) > 0
	if including && excluding {
		return ErrIncludeExclude
	}
	if including && o.NoKernel {
		return ErrIncludeExcludeKernel
	}

	for _, s := range append(append([]string(nil), o.Include...), o.Exclude...) {
		if s == "" {
			return ErrEmptyFilter
		}
		r.AddProcessOrPIDFilter(s)
	}
	if o.Quiet {
		r.AddProcessOrPIDFilter(QuietList)
		if len(o.QuietExtra) > 0 {
			r.AddProcessOrPIDFilter(strings.Join(o.QuietExtra, "|"))
		}
	}

	switch {
	case excluding:
		r.SetExcluding(true)
		if o.Kernel {
			r.RemoveProcessName(KernelProcess)
		} else if o.NoKernel {
			r.AddProcessOrPIDFilter(KernelProcess)
		}
	case o.Kernel:
		r.AddProcessOrPIDFilter(KernelProcess)
	case o.NoKernel:
		r.SetExcluding(true)
		r.AddProcessOrPIDFilter(KernelProcess)
	}
	return nil
}
