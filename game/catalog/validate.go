package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ValidationResult captures the outcome of validating a single catalog file.
// If Valid is false, Errors accumulates every problem that was found.
type ValidationResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateGameInfo checks the fields of a single catalog entry
func ValidateGameInfo(g *GameInfo) error {
	problems := gameInfoProblems(g)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
}

func gameInfoProblems(g *GameInfo) []string {
	if g == nil {
		return []string{"entry is empty"}
	}

	var problems []string
	if g.ID <= 0 {
		problems = append(problems, fmt.Sprintf("id must be positive, got %d", g.ID))
	}
	if strings.TrimSpace(g.Title) == "" {
		problems = append(problems, "title is required")
	}
	if g.Price < 0 {
		problems = append(problems, fmt.Sprintf("price cannot be negative, got %.2f", g.Price))
	}
	for field, raw := range map[string]string{"imageUrl": g.ImageURL, "gameUrl": g.GameURL} {
		if raw == "" {
			continue
		}
		if _, err := url.Parse(raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s is not a valid URL: %v", field, err))
		}
	}
	sort.Strings(problems)
	return problems
}

// ValidateFile loads and validates a single catalog JSON file
func ValidateFile(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	_, problems := readGameFile(path)
	if len(problems) > 0 {
		result.Valid = false
		result.Errors = problems
	}
	return result
}

// ValidateDir validates every *.json file in dir. Duplicate ids across
// files are reported against the later file.
func ValidateDir(dir string) ([]ValidationResult, error) {
	files, err := catalogFiles(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]string)
	results := make([]ValidationResult, 0, len(files))
	for _, path := range files {
		result := ValidationResult{File: filepath.Base(path), Valid: true}
		game, problems := readGameFile(path)
		if len(problems) == 0 {
			if prev, dup := seen[game.ID]; dup {
				problems = append(problems, fmt.Sprintf("id %d already defined in %s", game.ID, prev))
			} else {
				seen[game.ID] = result.File
			}
		}
		if len(problems) > 0 {
			result.Valid = false
			result.Errors = problems
		}
		results = append(results, result)
	}
	return results, nil
}

// readGameFile parses one catalog file and lists what is wrong with it
func readGameFile(path string) (*GameInfo, []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read file: %v", err)}
	}

	var game GameInfo
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, []string{fmt.Sprintf("Invalid JSON: %v", err)}
	}

	if problems := gameInfoProblems(&game); len(problems) > 0 {
		return nil, problems
	}
	return &game, nil
}

// catalogFiles lists the *.json files of dir in name order
func catalogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
