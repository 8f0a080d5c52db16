package outcome

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNetwork(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "https://api.example.com", Err: errors.New("connection refused")}
	assert.Equal(t, CauseNetwork, Classify(urlErr))
	assert.Equal(t, CauseNetwork, Classify(syscall.ECONNRESET))
	assert.Equal(t, CauseNetwork, Classify(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
}

func TestClassifyParse(t *testing.T) {
	var target struct{ A int }
	err := json.Unmarshal([]byte("{not json"), &target)
	assert.Equal(t, CauseParse, Classify(err))

	err = json.Unmarshal([]byte(`{"A":"string"}`), &target)
	assert.Equal(t, CauseParse, Classify(err))
}

func TestClassifyKeepsExistingCause(t *testing.T) {
	err := Wrap(CauseCache, "cache read failed", errors.New("disk full"))
	assert.Equal(t, CauseCache, Classify(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, CauseCache, Classify(wrapped))
}

func TestClassifyUnknown(t *testing.T) {
	assert.Equal(t, CauseUnknown, Classify(errors.New("something else")))
	assert.Equal(t, CauseUnknown, Classify(nil))
}
