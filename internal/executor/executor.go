// Package executor implements the per-input state machine of spec.md §4.5:
// Reset, Spawn, Init handshake, Inject, Stop, Post-exec. Grounded on the
// teacher's single-loop-per-worker event-loop shape (one goroutine issuing
// blocking syscalls/sleeps in order, no internal thread pool — matching
// spec.md §5's "no thread-pool inside a client").
//
// The teacher's internal/session package (sharded multi-session
// cancel/done/deadline manager) was judged overkill for a process that runs
// exactly one execution at a time, so its cancel/done/deadline shape is
// inlined here directly as single-slot deadlines (see handshake and
// pollUntilQuiescent) instead of
// kept as a separate package — design note (9)'s "no process-wide globals"
// extends naturally to "no session manager sized for more concurrency than
// exists".
package executor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/riesentoaster/ftz/internal/config"
	"github.com/riesentoaster/ftz/internal/input"
	"github.com/riesentoaster/ftz/internal/observer"
	"github.com/riesentoaster/ftz/internal/proto"
	"github.com/riesentoaster/ftz/internal/shmem"
	"github.com/riesentoaster/ftz/internal/supervisor"
)

// LocalIdentity is the client-side address set the responder (internal/proto)
// needs to synthesize replies (spec.md §4.3).
type LocalIdentity struct {
	MAC   proto.MAC
	IPv4  proto.IPv4Addr
	IPv6  proto.IPv6Addr
}

// Result is everything the caller (the replaying fuzzer loop, C10) needs
// from one execution.
type Result struct {
	ExitKind supervisor.ExitKind
	Duration time.Duration
	StateMap []byte
	Log      []observer.Entry
	Coverage []byte
}

// Executor runs one input execution against a target binary over a shmem
// transport. The caller's Region is reused across executions and reset at
// the start of each one (spec.md §3 Lifecycle: "created per client at client
// start... reset before each execution"); the Executor itself is reusable
// across executions within one client process.
type Executor struct {
	cfg        *config.Config
	execPath   string
	ethName    string
	covName    string
	identity   LocalIdentity
	logWriter  io.Writer
	transition bool
}

// New returns an Executor for one client's lifetime.
func New(cfg *config.Config, execPath, ethName, covName string, identity LocalIdentity, logWriter io.Writer, transitionMode bool) *Executor {
	return &Executor{cfg: cfg, execPath: execPath, ethName: ethName, covName: covName, identity: identity, logWriter: logWriter, transition: transitionMode}
}

// Run executes one input to completion, implementing the six steps of
// spec.md §4.5. region is the shmem transport the caller owns (its
// lifetime spans many executions, per the shmem Lifecycle note); coverage
// is the read-only coverage bitmap view shared with the target, or nil if
// none is configured.
func (e *Executor) Run(ctx context.Context, region *shmem.Region, coverage []byte, in *input.ListInput) (*Result, error) {
	// 1. Reset.
	region.Reset()
	obs := observer.New(e.transition)
	obs.Reset()
	tx, rx := region.Fuzzer()

	// 2. Spawn.
	target, err := supervisor.Spawn(e.execPath, e.ethName, region.Size()/2, e.covName, len(coverage), e.logWriter)
	if err != nil {
		return nil, fmt.Errorf("executor: fatal spawn error: %w", err)
	}

	start := time.Now()

	// 3. Init handshake.
	e.handshake(ctx, tx, rx, obs)

	// 4. Inject.
	for _, p := range in.Packets {
		wire := proto.Serialize(p)
		if err := tx.Send(wire); err != nil {
			_ = target.Kill()
			return nil, fmt.Errorf("executor: fatal transport error: %w", err)
		}
		obs.Observe(observer.Outgoing, wire, false)
		e.pollUntilQuiescent(ctx, tx, rx, obs, e.cfg.InterSendWatchdog)
	}

	// 5. Stop: probe the child's status first so a crash is classified
	// before Kill reaps it; only a still-running child is killed.
	running, exitKind, _ := target.TryWait()
	if running {
		_ = target.Kill()
	}

	// 6. Post-exec.
	return &Result{
		ExitKind: exitKind,
		Duration: time.Since(start),
		StateMap: obs.StateMap(),
		Log:      obs.Log(),
		Coverage: coverage,
	}, nil
}

// handshake drains the incoming ring for T_setup, logging and responding to
// every frame. ICMPv6 frames are logged without marking the state map, and
// no frame advances the observer's previous state (spec.md §4.3/§4.6).
func (e *Executor) handshake(ctx context.Context, tx, rx *shmem.Ring, obs *observer.Observer) {
	deadline := time.Now().Add(e.cfg.SetupTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if frame, ok := rx.TryRecv(); ok {
			obs.Observe(observer.Incoming, frame, true)
			e.respond(tx, frame)
		}
		time.Sleep(e.cfg.SetupTimeout / 20)
	}
}

// pollUntilQuiescent polls the incoming ring until watchdog elapses with no
// new frame, resetting the watchdog on every received frame (spec.md §4.5
// step 4).
func (e *Executor) pollUntilQuiescent(ctx context.Context, tx, rx *shmem.Ring, obs *observer.Observer, watchdog time.Duration) {
	deadline := time.Now().Add(watchdog)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if frame, ok := rx.TryRecv(); ok {
			obs.Observe(observer.Incoming, frame, false)
			e.respond(tx, frame)
			deadline = time.Now().Add(watchdog)
		}
		time.Sleep(watchdog / 5)
	}
}

// respond parses an incoming frame and, if it matches one of the responder's
// recognised request shapes, sends the synthesized reply (spec.md §4.3).
func (e *Executor) respond(tx *shmem.Ring, frame []byte) {
	parsed := proto.Parse(frame)
	if parsed.Err != nil {
		return
	}
	reply, ok := proto.Respond(parsed, e.identity.MAC, e.identity.IPv4, e.identity.IPv6)
	if !ok {
		return
	}
	_ = tx.Send(reply)
}
