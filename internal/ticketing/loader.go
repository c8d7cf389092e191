package ticketing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoadExport reads an exported conversation dataset and returns normalized
// conversations. The file may be a JSON array of records or JSONL with one
// record per line. Individual malformed records are skipped and logged at
// debug level; they never fail the load.
func LoadExport(path string, log *logrus.Entry) ([]Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".jsonl") {
		return loadJSONL(f, log)
	}

	var raws []RawConversation
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("decoding export %s: %w", path, err)
	}

	return normalizeAll(raws, log), nil
}

func loadJSONL(f *os.File, log *logrus.Entry) ([]Conversation, error) {
	var raws []RawConversation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var raw RawConversation
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			if log != nil {
				log.WithField("line", line).WithError(err).Debug("skipping malformed record")
			}
			continue
		}
		raws = append(raws, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	return normalizeAll(raws, log), nil
}

func normalizeAll(raws []RawConversation, log *logrus.Entry) []Conversation {
	convs := make([]Conversation, 0, len(raws))
	for i, raw := range raws {
		c := Normalize(raw)
		if c.ID == "" {
			if log != nil {
				log.WithField("index", i).Debug("record missing id, defaulted to positional id")
			}
			c.ID = fmt.Sprintf("record-%d", i)
		}
		convs = append(convs, c)
	}
	return convs
}
