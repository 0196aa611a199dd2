package piddir

import (
	"context"

	"go.uber.org/zap"

	"devsyslog/internal/filter"
)

const kernelPID = 0

// StartPID picks the pid to request at stream start. It only narrows the
// stream for a single allowed pid or a single allowed process name; every
// other filter setup streams all processes and filters locally.
func StartPID(ctx context.Context, p Provider, reg *filter.Registry, log *zap.SugaredLogger) (int, bool, error) {
	if reg.Excluding() {
		return 0, false, nil
	}
	pids, names := reg.PIDs(), reg.Names()

	switch {
	case len(names) == 0 && len(pids) == 1:
		pid := pids[0]
		if pid > 0 {
			dir, err := Fetch(ctx, p)
			if err != nil {
				return 0, false, err
			}
			if !dir.Valid(pid) {
				log.Warnf("NOTE: A process with pid %d doesn't exist!", pid)
			}
		}
		return pid, true, nil

	case len(names) == 1 && len(pids) == 0:
		if names[0] == filter.KernelProcess {
			return kernelPID, true, nil
		}
		dir, err := Fetch(ctx, p)
		if err != nil {
			return 0, false, err
		}
		pid, ok := dir.PIDFor(names[0])
		return pid, ok, nil
	}
	return 0, false, nil
}
