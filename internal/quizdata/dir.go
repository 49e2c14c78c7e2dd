package quizdata

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// quizFile is the on-disk layout of a bundled quiz set. Items without their
// own topic inherit the file's topic.
type quizFile struct {
	Topic     string     `yaml:"topic"`
	Questions []QuizItem `yaml:"questions"`
}

// DirSource loads bundled quiz sets from the YAML files under a directory.
// Files are read in lexical path order, so item order is stable.
type DirSource struct {
	rootDir string
}

// NewDirSource creates a source rooted at rootDir.
func NewDirSource(rootDir string) *DirSource {
	return &DirSource{rootDir: rootDir}
}

func (s *DirSource) Fetch(ctx context.Context) ([]QuizItem, error) {
	if _, err := os.Stat(s.rootDir); err != nil {
		return nil, fmt.Errorf("quiz directory: %w", err)
	}

	var items []QuizItem
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		loaded, err := loadQuizFile(path)
		if err != nil {
			return err
		}
		items = append(items, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading quiz directory: %w", err)
	}

	slog.Debug("quiz files loaded", "dir", s.rootDir, "items", len(items))
	return items, nil
}

func loadQuizFile(path string) ([]QuizItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file quizFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("skipping invalid quiz YAML", "path", path, "error", err)
		return nil, nil
	}

	items := make([]QuizItem, 0, len(file.Questions))
	for _, item := range file.Questions {
		if item.Topic == "" {
			item.Topic = file.Topic
		}
		items = append(items, item)
	}
	return items, nil
}
