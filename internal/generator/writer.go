package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkulenov/fraudlab/internal/domain"
)

// WriteDataset serializes the dataset into per-entity JSON files under the
// provided directory.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name string
		data any
	}{
		{"users.json", dataset.Users},
		{"devices.json", dataset.Devices},
		{"merchants.json", dataset.Merchants},
		{"transactions.json", dataset.Transactions},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

// WriteLabeled serializes labeled transactions into labeled_transactions.json
// under the provided directory.
func WriteLabeled(labeled []domain.LabeledTransaction, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, "labeled_transactions.json"), labeled)
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
