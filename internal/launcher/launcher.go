package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/riesentoaster/ftz/internal/logging"
)

// EnvClientID and EnvBrokerSocket are the internal (not part of the public
// CLI surface of spec.md §6) environment variables a re-exec'd client reads
// to learn its ClientID and how to reach the broker.
const (
	EnvClientID     = "FTZ_CLIENT_ID"
	EnvBrokerSocket = "FTZ_BROKER_SOCKET"
)

// Plan is the resolved set of clients to launch (spec.md §4.12: "cores ×
// overcommit clients").
type Plan struct {
	Cores      []int
	Overcommit int
}

// ClientCount returns the total number of clients this Plan launches. A
// nil/empty Cores (spec.md §6 `--cores none`) still launches Overcommit
// unpinned clients.
func (p Plan) ClientCount() int {
	n := len(p.Cores)
	if n == 0 {
		n = 1
	}
	return n * p.Overcommit
}

// CoreFor returns the core a given ClientID should pin to, or (-1, false)
// if the plan has no cores configured.
func (p Plan) CoreFor(clientID int) (int, bool) {
	if len(p.Cores) == 0 {
		return -1, false
	}
	return p.Cores[clientID%len(p.Cores)], true
}

// Launch starts Plan.ClientCount() re-exec'd client subprocesses of the
// current binary, each with EnvClientID/EnvBrokerSocket set, and returns
// their exec.Cmd handles so the caller can wait on / restart them (spec.md
// §7: "The launcher restarts crashed clients automatically").
func Launch(plan Plan, sockPath string, log *logging.Logger) ([]*exec.Cmd, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("launcher: resolve self executable: %w", err)
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return nil, fmt.Errorf("launcher: resolve self executable: %w", err)
	}

	n := plan.ClientCount()
	cmds := make([]*exec.Cmd, 0, n)
	for id := 0; id < n; id++ {
		cmd := exec.Command(self, os.Args[1:]...)
		cmd.Env = append(os.Environ(),
			fmt.Sprintf("%s=%d", EnvClientID, id),
			fmt.Sprintf("%s=%s", EnvBrokerSocket, sockPath),
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return cmds, fmt.Errorf("launcher: start client %d: %w", id, err)
		}
		log.Infof("launcher: started client %d (pid %d)", id, cmd.Process.Pid)
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Restart re-launches a single crashed client (spec.md §7), returning its
// new exec.Cmd handle.
func Restart(clientID int, sockPath string, log *logging.Logger) (*exec.Cmd, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(self, os.Args[1:]...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%d", EnvClientID, clientID),
		fmt.Sprintf("%s=%s", EnvBrokerSocket, sockPath),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launcher: restart client %d: %w", clientID, err)
	}
	log.Infof("launcher: restarted client %d (pid %d)", clientID, cmd.Process.Pid)
	return cmd, nil
}

// IsClientProcess reports whether the current process was launched as a
// client (EnvClientID set), and its ClientID if so.
func IsClientProcess() (id int, ok bool) {
	v, present := os.LookupEnv(EnvClientID)
	if !present {
		return 0, false
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
