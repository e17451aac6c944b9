package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizengine/internal/repository"
	"quizengine/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a quiz from a YAML fixture",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().String("file", "", "Path to the quiz fixture (required)")
	seedCmd.Flags().String("owner", "", "Owner user ID (overrides the fixture's owner)")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	owner, _ := cmd.Flags().GetString("owner")

	quiz, questions, err := seed.LoadFile(path, owner)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.NewQuizRepository(db).Create(cmd.Context(), quiz, questions); err != nil {
		return fmt.Errorf("failed to store quiz: %w", err)
	}
	log.Printf("Seeded quiz %s (%d questions) owned by %s", quiz.ID, len(questions), quiz.OwnerID)
	return nil
}
