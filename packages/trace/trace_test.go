package trace

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConsoleLogger_TagsCategory(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(WithWriter(&buf), WithNoColor(true))

	l.Log(CategoryChallenge, "challenge failed")

	assert.Equal(t, "[challenge] challenge failed\n", buf.String())
}

func TestConsoleLogger_FirstLineUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(WithWriter(&buf), WithNoColor(true))
	l.Log(CategoryAPI, "beginning GET /x\ncurl -X GET")
	assert.Equal(t, "[api] beginning GET /x\n", buf.String())

	buf.Reset()
	l = NewConsoleLogger(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	l.Log(CategoryAPI, "beginning GET /x\ncurl -X GET")
	assert.Equal(t, "[api] beginning GET /x\ncurl -X GET\n", buf.String())
}

func TestConsoleLogger_CategoryFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(WithWriter(&buf), WithNoColor(true), WithCategories(CategoryChallenge))

	l.Log(CategoryAPI, "dropped")
	l.Log(CategoryChallenge, "kept")

	assert.Equal(t, "[challenge] kept\n", buf.String())
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(WithWriter(&buf), WithNoColor(true))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(CategoryAPI, "line")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, bytes.Count(buf.Bytes(), []byte("[api] line\n")))
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapLogger(zap.New(core))

	l.Log(CategoryAPI, "successful GET /users")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "successful GET /users", entries[0].Message)
		assert.Equal(t, "api", entries[0].ContextMap()["category"])
	}
}

func TestSafe_RecoversPanics(t *testing.T) {
	panicky := LoggerFunc(func(Category, string) { panic("boom") })

	assert.NotPanics(t, func() {
		Safe(panicky, CategoryAPI, "msg")
		Safe(nil, CategoryAPI, "msg")
	})
}

func TestCurl(t *testing.T) {
	got := Curl("POST", "https://api.example.com/users?id=1", map[string]string{
		"X-B":          "2",
		"Content-Type": "application/json",
	}, []byte(`{"name":"o'neil"}`))

	want := "curl -X POST \\\n" +
		"  -H 'Content-Type: application/json' \\\n" +
		"  -H 'X-B: 2' \\\n" +
		"  -d '{\"name\":\"o'\\''neil\"}' \\\n" +
		"  'https://api.example.com/users?id=1'"
	assert.Equal(t, want, got)
}

func TestCurl_NoHeadersNoBody(t *testing.T) {
	assert.Equal(t, "curl -X GET \\\n  'http://x/'", Curl("GET", "http://x/", nil, nil))
}
