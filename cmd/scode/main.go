package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/scode/pkg/scode"
	"github.com/cognicore/scode/pkg/scode/config"
	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/store"
	"github.com/cognicore/scode/pkg/scode/store/sqlite"
)

// options are the command-line settings that are not part of config.Config.
type options struct {
	input    string
	dbPath   string
	probe    string
	initialZ bool
}

func main() {
	var (
		input    = flag.String("input", "-", "Pair file, one 'left right' pair per line ('-' for stdin)")
		cfgPath  = flag.String("config", "", "Optional YAML config file")
		dbPath   = flag.String("db", "", "Optional SQLite file recording run history (default: in-memory)")
		dim      = flag.Int("dim", 0, "Embedding dimensionality (overrides config)")
		passes   = flag.Int("passes", 0, "Training passes (overrides config)")
		seed     = flag.Uint64("seed", 0, "Random seed (overrides config)")
		probe    = flag.String("probe", "", "Comma-separated left tokens whose nearest right tokens are printed")
		k        = flag.Int("k", 0, "Neighbours per probe token (overrides config)")
		initialZ = flag.Bool("calcz-initial", false, "Also compute the exact partition function before training")
	)
	flag.Parse()

	log.Printf("hello")

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dim":
			cfg.Dim = *dim
		case "passes":
			cfg.Passes = *passes
		case "seed":
			cfg.Seed = *seed
		case "k":
			cfg.Neighbors = *k
		}
	})

	opts := options{input: *input, dbPath: *dbPath, probe: *probe, initialZ: *initialZ}
	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("bye")
}

// run trains one model and writes probe neighbours to out. The store and
// the input are closed before it returns, whatever the outcome.
func run(ctx context.Context, cfg config.Config, opts options, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	in, name, err := openInput(opts.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	var st store.Store
	if opts.dbPath != "" {
		if st, err = sqlite.OpenSQLite(ctx, opts.dbPath); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}

	eng := scode.New(scode.Options{
		Config:    cfg,
		Store:     st,
		Progress:  logProgress,
		ZProgress: func(corpus.TokenID) { fmt.Fprint(os.Stderr, ".") },
		InitialZ:  opts.initialZ,
	})
	defer eng.Close()

	log.Printf("Reading data")
	res, err := eng.Run(ctx, in, name)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	if opts.initialZ {
		log.Printf("initial Z=%g (approx %g)", res.InitialZ, res.ApproxZ)
	}
	log.Printf("Z=%g (approx %g)", res.ExactZ, res.ApproxZ)
	log.Printf("PMI fit over %d pairs: r=%.4f rmse=%.4f npmi=%.4f",
		res.Fit.Pairs, res.Fit.Correlation, res.Fit.RMSE, res.Fit.MeanNPMI)

	for _, tok := range splitList(opts.probe) {
		near, err := res.Neighbors(tok, cfg.Neighbors)
		if err != nil {
			log.Printf("WARNING: probe %s: %v", tok, err)
			continue
		}
		parts := make([]string, len(near))
		for i, n := range near {
			parts[i] = fmt.Sprintf("%s(%.3f)", n.Token, n.SqDist)
		}
		fmt.Fprintf(out, "%s\t%s\n", tok, strings.Join(parts, " "))
	}

	log.Printf("run %s recorded", res.RunID)
	return nil
}

func logProgress(p scode.Progress) {
	if p.Initial {
		log.Printf("Read %d tuples %d uniq tokens", p.Tuples, p.Tokens)
		log.Printf("logL=%g", p.LogL)
		return
	}
	log.Printf("Iteration %d/%d", p.Pass, p.Passes)
	log.Printf("maxmove=%g", p.MaxMove)
	log.Printf("logL=%g", p.LogL)
	if p.Degenerate > 0 {
		log.Printf("WARNING: %d zero-norm vectors left unnormalized", p.Degenerate)
	}
}

func openInput(path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
