// main.go
//
// Entry point for goatherd. Default mode plays the farmer's puzzle: read a
// secret code from stdin and guess it in as few rounds as possible,
// printing each guess with its goats/chickens offer. With -serve, the
// process instead exposes the solver over HTTP with auth and run history.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goatherd/internal/code"
	"github.com/robalobadob/goatherd/internal/history"
	"github.com/robalobadob/goatherd/internal/httpserver"
	"github.com/robalobadob/goatherd/internal/solver"
	"github.com/robalobadob/goatherd/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	digits := flag.Int("d", 10, "number of possible digits (base)")
	length := flag.Int("l", 5, "length of the code")
	threads := flag.Int("t", 5, "worker thread count")
	initial := flag.Int("g", 112, "initial guess, as a base-10 integer")
	serve := flag.Bool("serve", false, "run the HTTP service instead of a one-shot solve")
	flag.Usage = usage
	flag.Parse()

	if *serve {
		runServer()
		return
	}

	if *digits <= 0 {
		fmt.Println("Invalid digits: must be at least one.")
		os.Exit(1)
	}
	if *length <= 0 {
		fmt.Println("Invalid code length: must be at least one.")
		os.Exit(1)
	}
	if *threads <= 0 {
		fmt.Println("Invalid thread count: must be at least one.")
		os.Exit(1)
	}

	space, err := code.New(*digits, *length)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// The secret arrives as one line on stdin, an integer in base -d.
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		fmt.Println("Could not get code input. Exiting.")
		os.Exit(1)
	}
	secret, err := space.Parse(sc.Text())
	if err != nil {
		fmt.Printf("Could not get code input: %v. Exiting.\n", err)
		os.Exit(1)
	}

	slv, err := solver.New(space, *threads, solver.WithRoundFunc(func(r solver.Round) {
		fmt.Printf("\nGuess: %s\nNumber of guesses: %d\nGoats: %d\nChickens: %d\n",
			space.Format(r.Guess), r.Number, r.Offer.Goats, r.Offer.Chickens)
	}))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if _, err := slv.Solve(secret, space.FromInt(*initial)); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Options:")
	fmt.Println("  -d <digits> Number of possible digits (base, Default: 10)")
	fmt.Println("  -l <length> Length of the code (Default: 5)")
	fmt.Println("  -t <threads> (Default 5)")
	fmt.Println("  -g <initial-guess> (Default: 112)")
	fmt.Println("  -serve Run the HTTP service (Default: off)")
}

// runServer starts service mode: SQLite-backed history plus the chi API.
func runServer() {
	db, err := history.Open(getEnv("DATABASE_PATH", "./data/goatherd.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := history.Migrate(db, getEnv("MIGRATIONS_DIR", "sql")); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting goatherd service")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
