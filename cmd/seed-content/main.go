package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/database"
	"github.com/codeclash/arena-backend/internal/logger"
	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	contentRepo := repository.NewContentRepository(pool)

	fmt.Println("=== Seeding Problems and Questions ===")

	problems := []*model.Problem{
		{
			Title:            "Sum of Two Numbers",
			Difficulty:       model.DifficultyEasy,
			BaseScore:        100,
			TimeLimitSeconds: 900,
			Statement:        "Read two integers from stdin and print their sum.",
			TestCases: []model.TestCase{
				{Input: "1 2", Expected: "3"},
				{Input: "-5 5", Expected: "0"},
				{Input: "1000000 2000000", Expected: "3000000"},
			},
		},
		{
			Title:            "Reverse a String",
			Difficulty:       model.DifficultyEasy,
			BaseScore:        100,
			TimeLimitSeconds: 900,
			Statement:        "Read a line from stdin and print it reversed.",
			TestCases: []model.TestCase{
				{Input: "hello", Expected: "olleh"},
				{Input: "a", Expected: "a"},
			},
		},
		{
			Title:            "Longest Unique Substring",
			Difficulty:       model.DifficultyMedium,
			BaseScore:        200,
			TimeLimitSeconds: 1800,
			Statement:        "Print the length of the longest substring without repeating characters.",
			TestCases: []model.TestCase{
				{Input: "abcabcbb", Expected: "3"},
				{Input: "bbbbb", Expected: "1"},
				{Input: "pwwkew", Expected: "3"},
			},
		},
		{
			Title:            "Median of Two Sorted Arrays",
			Difficulty:       model.DifficultyHard,
			BaseScore:        400,
			TimeLimitSeconds: 2700,
			Statement:        "Given two sorted integer arrays, print their combined median.",
			TestCases: []model.TestCase{
				{Input: "1 3\n2", Expected: "2.0"},
				{Input: "1 2\n3 4", Expected: "2.5"},
			},
		},
	}

	problemCount := 0
	for _, p := range problems {
		p.ID = uuid.New()
		if err := contentRepo.CreateProblem(ctx, p); err != nil {
			fmt.Printf("Error creating problem %q: %v\n", p.Title, err)
			continue
		}
		problemCount++
	}

	questions := []*model.Question{
		{
			Prompt:       "What is the time complexity of binary search?",
			Options:      []string{"O(n)", "O(log n)", "O(n log n)", "O(1)"},
			CorrectIndex: 1,
			Difficulty:   model.DifficultyEasy,
		},
		{
			Prompt:       "Which data structure uses FIFO ordering?",
			Options:      []string{"Stack", "Queue", "Tree", "Heap"},
			CorrectIndex: 1,
			Difficulty:   model.DifficultyEasy,
		},
		{
			Prompt:       "What does ACID stand for in databases?",
			Options:      []string{"Atomicity, Consistency, Isolation, Durability", "Access, Control, Integrity, Data", "Atomicity, Concurrency, Integrity, Distribution", "Availability, Consistency, Isolation, Durability"},
			CorrectIndex: 0,
			Difficulty:   model.DifficultyMedium,
		},
		{
			Prompt:       "Which sorting algorithm has the best average-case complexity?",
			Options:      []string{"Bubble sort", "Insertion sort", "Merge sort", "Selection sort"},
			CorrectIndex: 2,
			Difficulty:   model.DifficultyMedium,
		},
		{
			Prompt:       "In a hash table with chaining, what is the worst-case lookup time?",
			Options:      []string{"O(1)", "O(log n)", "O(n)", "O(n^2)"},
			CorrectIndex: 2,
			Difficulty:   model.DifficultyMedium,
		},
		{
			Prompt:       "Which of these is NOT a property of a B-tree?",
			Options:      []string{"Balanced height", "Sorted keys", "O(1) lookup", "Multiple keys per node"},
			CorrectIndex: 2,
			Difficulty:   model.DifficultyHard,
		},
		{
			Prompt:       "What consistency level does two-phase commit provide?",
			Options:      []string{"Eventual", "Atomic commitment", "Causal", "Read-your-writes"},
			CorrectIndex: 1,
			Difficulty:   model.DifficultyHard,
		},
		{
			Prompt:       "Which HTTP status code means Too Many Requests?",
			Options:      []string{"408", "425", "429", "503"},
			CorrectIndex: 2,
			Difficulty:   model.DifficultyEasy,
		},
		{
			Prompt:       "What does CAP theorem trade off during a network partition?",
			Options:      []string{"Consistency and availability", "Latency and throughput", "Durability and atomicity", "Sharding and replication"},
			CorrectIndex: 0,
			Difficulty:   model.DifficultyMedium,
		},
		{
			Prompt:       "Which traversal visits a binary search tree in sorted order?",
			Options:      []string{"Pre-order", "In-order", "Post-order", "Level-order"},
			CorrectIndex: 1,
			Difficulty:   model.DifficultyEasy,
		},
	}

	questionCount := 0
	for _, q := range questions {
		q.ID = uuid.New()
		if err := contentRepo.CreateQuestion(ctx, q); err != nil {
			fmt.Printf("Error creating question %q: %v\n", q.Prompt, err)
			continue
		}
		questionCount++
	}

	fmt.Printf("\nSeed completed! Added %d problems and %d questions.\n", problemCount, questionCount)
}
