// siamese-query loads a knowledge-base file and runs one query:
//
//	siamese-query --kb knowledge.yaml grandparent david '?GC'
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"go.uber.org/zap/zapcore"

	"github.com/HsiangNianian/siamese-prototype/pkg/siamese"
)

func main() {
	var (
		kbPath       = flag.String("kb", "", "Knowledge-base file (required)")
		maxSolutions = flag.Int("max-solutions", -1, "Cap on solutions (-1 = unbounded)")
		maxDepth     = flag.Int("max-depth", 25, "Rule recursion limit")
		verbose      = flag.Bool("v", false, "Emit CALL/EXIT/REDO/FAIL trace events")
	)
	flag.Parse()

	if *kbPath == "" {
		log.Fatal("--kb required")
	}
	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("usage: siamese-query --kb FILE predicate [arg ...]")
	}

	engine, err := siamese.New(siamese.Options{})
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		engine.ConfigureLogging(zapcore.DebugLevel)
	}
	if err := engine.LoadFromFile(*kbPath); err != nil {
		log.Fatal(err)
	}

	goal := make(siamese.Goal, 0, len(args))
	for _, a := range args {
		goal = append(goal, a)
	}

	ctx := context.Background()
	sols, err := engine.Query(ctx, goal,
		siamese.WithMaxSolutions(*maxSolutions),
		siamese.WithMaxDepth(*maxDepth))
	if err != nil {
		log.Fatal(err)
	}
	defer sols.Close()

	count := 0
	for sols.Next() {
		count++
		sol := sols.Current()
		names := make([]string, 0, len(sol))
		for name := range sol {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("solution %d:", count)
		if len(names) == 0 {
			fmt.Print(" yes")
		}
		for _, name := range names {
			fmt.Printf(" %s=%s", name, sol[name])
		}
		fmt.Println()
	}
	if err := sols.Err(); err != nil {
		log.Fatal(err)
	}
	if count == 0 {
		fmt.Println("no solutions")
		os.Exit(1)
	}
}
