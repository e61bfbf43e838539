// Command ftz-fuzz drives the coverage-guided, stateful network-protocol
// fuzzer (spec.md §1). Flag handling follows the teacher's plain stdlib
// `flag` idiom (examples/stest/server/main.go): no third-party CLI library
// appears in any complete example repo, so there is no ecosystem way to
// defer to here — see DESIGN.md.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/riesentoaster/ftz/affinity"
	"github.com/riesentoaster/ftz/internal/config"
	"github.com/riesentoaster/ftz/internal/corpus"
	"github.com/riesentoaster/ftz/internal/executor"
	"github.com/riesentoaster/ftz/internal/feedback"
	"github.com/riesentoaster/ftz/internal/fuzzloop"
	"github.com/riesentoaster/ftz/internal/generate"
	"github.com/riesentoaster/ftz/internal/input"
	"github.com/riesentoaster/ftz/internal/launcher"
	"github.com/riesentoaster/ftz/internal/logging"
	"github.com/riesentoaster/ftz/internal/monitor"
	"github.com/riesentoaster/ftz/internal/mutate"
	"github.com/riesentoaster/ftz/internal/proto"
	"github.com/riesentoaster/ftz/internal/shmem"
)

func main() {
	cores := flag.String("cores", "none", `CPU set, syntax "1,2-4,6" or "all" or "none"`)
	overcommit := flag.Int("overcommit", 1, "clients per core")
	zephyrExecDir := flag.String("zephyr-exec-dir", "", "path to target executable (required)")
	zephyrOutDir := flag.String("zephyr-out-dir", "", "optional log path for the target's stdout/stderr")
	corpusDir := flag.String("corpus-dir", "corpus", "on-disk corpus directory")
	solutionsDir := flag.String("solutions-dir", "solutions", "on-disk solutions directory")
	monitorBase := flag.String("monitor", "monitor", "base name for the monitor JSON file")
	stdoutPath := flag.String("stdout", "", "path for launcher stdout")
	stderrPath := flag.String("stderr", "", "path for launcher stderr")
	fuzzOne := flag.Bool("fuzz-one", false, "run a single iteration then exit; forces cores=1, overcommit=1")
	loadOnly := flag.Bool("load-only", false, "only generate initial corpus, then exit")
	stateDiff := flag.Bool("state-diff", false, "switch state map from absolute to transition mode")
	flag.Parse()

	cfg := config.DefaultConfig()
	cfg.Cores, cfg.Overcommit = *cores, *overcommit
	cfg.ZephyrExecDir, cfg.ZephyrOutDir = *zephyrExecDir, *zephyrOutDir
	cfg.CorpusDir, cfg.SolutionsDir, cfg.MonitorBase = *corpusDir, *solutionsDir, *monitorBase
	cfg.StdoutPath, cfg.StderrPath = *stdoutPath, *stderrPath
	cfg.FuzzOne, cfg.LoadOnly, cfg.StateDiff = *fuzzOne, *loadOnly, *stateDiff
	if cfg.FuzzOne {
		cfg.Cores, cfg.Overcommit = "1", 1
	}

	log := logging.Default()

	if clientID, ok := launcher.IsClientProcess(); ok {
		os.Exit(runClient(cfg, clientID, log))
	}
	os.Exit(runLauncher(cfg, log))
}

// redirectStdio reopens the launcher process's own stdout/stderr onto the
// paths named by --stdout/--stderr, when set (spec.md §6).
func redirectStdio(cfg *config.Config) error {
	if cfg.StdoutPath != "" {
		f, err := os.OpenFile(cfg.StdoutPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("ftz-fuzz: --stdout: %w", err)
		}
		os.Stdout = f
	}
	if cfg.StderrPath != "" {
		f, err := os.OpenFile(cfg.StderrPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("ftz-fuzz: --stderr: %w", err)
		}
		os.Stderr = f
	}
	return nil
}

// runLauncher is the top-level broker process: it resolves the client plan,
// opens the broker's IPC socket and monitor file, spawns clients, and waits.
func runLauncher(cfg *config.Config, log *logging.Logger) int {
	if cfg.ZephyrExecDir == "" {
		fmt.Fprintln(os.Stderr, "ftz-fuzz: --zephyr-exec-dir is required")
		return 1
	}
	if err := redirectStdio(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cores, err := launcher.ParseCoreSet(cfg.Cores, runtime.NumCPU())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	plan := launcher.Plan{Cores: cores, Overcommit: cfg.Overcommit}

	sockPath := filepath.Join(os.TempDir(), fmt.Sprintf("ftz-broker-%d.sock", os.Getpid()))
	broker, err := launcher.NewBroker(sockPath, len(cores) > 0, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer broker.Close()
	go broker.Serve()

	mon, err := monitor.NewWriter(cfg.MonitorBase)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var execCount uint64
	broker.Subscribe(func(ev launcher.Event) {
		if ev.Kind == launcher.EventMiscStats {
			execCount++
		}
	})

	ctxDone := make(chan struct{})
	go monitor.RunTicker(mon, 10*time.Second, ctxDone, func() monitor.Aggregate {
		corpusCount, _ := feedback.CorpusFileCount(cfg.CorpusDir)
		return monitor.Aggregate{
			UpdatedAt:       time.Now().UTC(),
			ClientsRunning:  plan.ClientCount(),
			TotalExecs:      execCount,
			CorpusFileCount: corpusCount,
			FreeMemoryBytes: feedback.FreeMemoryBytes(),
		}
	})
	defer close(ctxDone)

	cmds, err := launcher.Launch(plan, sockPath, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		for _, cmd := range cmds {
			cmd.Wait()
		}
		close(done)
	}()

	select {
	case <-sigCh:
		log.Infof("ftz-fuzz: shutting down on signal")
		for _, cmd := range cmds {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	case <-done:
	}
	return 0
}

// runClient is a single fuzzing client: it opens the shmem transport and
// coverage region, builds the executor/mutator/corpus stack, and runs the
// replaying fuzzer loop (spec.md §2's per-client data flow).
func runClient(cfg *config.Config, clientID int, log *logging.Logger) int {
	if cores, err := launcher.ParseCoreSet(cfg.Cores, runtime.NumCPU()); err == nil {
		plan := launcher.Plan{Cores: cores, Overcommit: cfg.Overcommit}
		if core, ok := plan.CoreFor(clientID); ok {
			if err := affinity.SetAffinity(core); err != nil {
				log.Warnf("client %d: affinity pin failed: %v", clientID, err)
			}
		}
	}

	ethName := fmt.Sprintf("ftz-eth-%d-%d", os.Getpid(), clientID)
	covName := fmt.Sprintf("ftz-cov-%d-%d", os.Getpid(), clientID)
	region, err := shmem.CreateNamedRegion(ethName, cfg.ShmemEthSize)
	if err != nil {
		log.Errorf("client %d: shmem region: %v", clientID, err)
		return 1
	}
	defer region.Close()

	coverage := make([]byte, cfg.ShmemCoverageSize)

	identity := executor.LocalIdentity{
		MAC:  proto.MAC{0x02, 0, 0, 0, 0, byte(clientID + 1)},
		IPv4: proto.IPv4Addr{169, 254, 0, byte(clientID + 1)},
	}
	var logWriter io.Writer
	if cfg.ZephyrOutDir != "" {
		f, ferr := os.OpenFile(filepath.Join(cfg.ZephyrOutDir, fmt.Sprintf("client-%d.log", clientID)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr == nil {
			logging.WriteRunSeparator(f, clientID)
			defer f.Close()
			logWriter = f
		}
	}
	exec := executor.New(cfg, cfg.ZephyrExecDir, region.Name(), covName, identity, logWriter, cfg.StateDiff)

	onDiskCorpus, err := corpus.NewOnDisk(cfg.CorpusDir)
	if err != nil {
		log.Errorf("client %d: corpus dir: %v", clientID, err)
		return 1
	}
	if err := onDiskCorpus.LoadFromDirectory(cfg.CorpusDir); err != nil {
		log.Warnf("client %d: load corpus: %v", clientID, err)
	}
	solutions, err := corpus.NewOnDisk(cfg.SolutionsDir)
	if err != nil {
		log.Errorf("client %d: solutions dir: %v", clientID, err)
		return 1
	}

	if onDiskCorpus.Count() == 0 {
		for _, prefix := range generate.InitialCorpusPrefixes(generate.GoldenTrace) {
			l := input.New()
			l.Packets = prefix
			if _, err := onDiskCorpus.Add(l, map[string]any{}); err != nil {
				log.Warnf("client %d: seed corpus: %v", clientID, err)
			}
		}
	}
	if cfg.LoadOnly {
		return 0
	}

	fb := feedback.OrFast(
		feedback.TimeFeedback,
		feedback.PacketMetadata,
		feedback.Gated(feedback.CoverageNovelty, cfg.CoverageGatesAdmission),
		feedback.StateNovelty,
	)
	objective := feedback.OrFast(feedback.TimeFeedback, feedback.CrashLogging)

	fixedGen := generate.NewFixedTraceGenerator(generate.GoldenTrace)
	randomGen := generate.NewRandomTCPGenerator(generate.GoldenTrace[0])
	stack := mutate.DefaultStack(fixedGen, randomGen)

	rng := rand.New(rand.NewSource(int64(os.Getpid()) ^ int64(clientID)))
	loop := fuzzloop.New(cfg, exec, region.Region, coverage, onDiskCorpus, solutions, stack, fb, objective, rng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	seed, _ := onDiskCorpus.First()
	var seedInput *input.ListInput
	if seed != nil {
		seedInput, _ = seed.List()
	} else {
		seedInput = input.New()
	}

	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}
		if _, err := loop.RunOnce(ctx, seedInput); err != nil {
			log.Errorf("client %d: fatal: %v", clientID, err)
			return 1
		}
		if cfg.FuzzOne {
			return 0
		}
	}
}
