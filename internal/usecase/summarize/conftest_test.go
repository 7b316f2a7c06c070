package summarize

import (
	"context"
	"strings"
	"sync"
	"time"
)

// fakeProvider serves fulltext from a map. Ids absent from the map get an
// empty string; ids in failIDs return an error.
type fakeProvider struct {
	texts   map[string]string
	failIDs map[string]error
}

func (f *fakeProvider) Fetch(_ context.Context, docID string) (string, error) {
	if err, ok := f.failIDs[docID]; ok {
		return "", err
	}
	return f.texts[docID], nil
}

// fakeGenerator scripts per-call outcomes keyed by a substring of the user
// prompt. Each matched script is consumed call by call; a nil entry means
// success.
type fakeGenerator struct {
	mu      sync.Mutex
	scripts map[string][]error // prompt substring -> error per attempt
	reply   string
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for key, errs := range f.scripts {
		if !strings.Contains(userPrompt, key) || len(errs) == 0 {
			continue
		}
		err := errs[0]
		f.scripts[key] = errs[1:]
		if err != nil {
			return "", err
		}
	}
	return f.reply, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func noBackoff(int) time.Duration { return 0 }
