package moderation

import (
	"bufio"
	"bytes"
	"chat-relay/errors"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
)

// Dictionary is the result of loading censored word lists.
type Dictionary struct {
	Words     []string
	Languages []string
}

// LoadDictionaries reads every .txt file of dir, one word per line.
// The file name is the language of its words, "fr.txt" -> "fr".
func LoadDictionaries(fsys fs.FS, dir string) (Dictionary, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return Dictionary{}, err
	}

	var languages, words []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return Dictionary{}, err
		}

		// Scanner handles \n and \r\n alike
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				words = append(words, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return Dictionary{}, err
		}
	}

	if len(words) == 0 {
		return Dictionary{}, errors.ErrEmptyWords
	}
	return Dictionary{Words: lo.Uniq(words), Languages: languages}, nil
}
