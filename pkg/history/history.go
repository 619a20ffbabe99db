package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/logger"
)

const (
	dayLayout  = "2006-01-02"
	fileLayout = "20060102-150405"

	// RecentLimit is how many transcripts the resume menu offers.
	RecentLimit = 20
)

// Store writes one chat session's transcript under
// <Dir>/<Provider>/<YYYY-MM-DD>/<YYYYMMDD-HHMMSS>.json. The file name is
// fixed by the first Save; later saves overwrite the same file.
type Store struct {
	Dir      string
	Provider string
	Now      func() time.Time

	file string
}

func NewStore(dir, provider string) *Store {
	return &Store{Dir: dir, Provider: provider, Now: time.Now}
}

// ProviderDir is the base directory holding every transcript of the provider.
func (s *Store) ProviderDir() string {
	return filepath.Join(s.Dir, s.Provider)
}

// File is the path of the session transcript, empty before the first Save.
func (s *Store) File() string {
	return s.file
}

func (s *Store) Save(messages []LLM.Message) error {
	if s.file == "" {
		now := s.Now()
		dir := filepath.Join(s.ProviderDir(), now.Format(dayLayout))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
		s.file = filepath.Join(dir, now.Format(fileLayout)+".json")
		logger.Debug("New chat transcript", "file", s.file)
	}

	data, err := encode(messages)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := os.WriteFile(s.file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	return nil
}

func encode(messages []LLM.Message) ([]byte, error) {
	if messages == nil {
		messages = []LLM.Message{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(messages); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Recent returns up to n transcript paths of the provider, newest first.
// The layout makes lexical order chronological. A missing directory is not
// an error.
func (s *Store) Recent(n int) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.ProviderDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.ProviderDir() {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	if n >= 0 && len(files) > n {
		files = files[:n]
	}
	return files, nil
}

// DisplayName is the transcript's file name without extension.
func DisplayName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func Load(path string) ([]LLM.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation file: %w", err)
	}

	var messages []LLM.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", path, err)
	}
	return messages, nil
}
