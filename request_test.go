package webkit

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_BodyReadIsCachedAcrossCopies(t *testing.T) {
	req := NewRequest("get", mustURL("/x"), nil, nil, strings.NewReader("hello"), 0)
	derived := req.WithContextValue("k", "v")

	b1, err := req.Body()
	require.NoError(t, err)
	b2, err := derived.Body()
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "hello", string(b1))
}

func TestRequest_PayloadTooLarge(t *testing.T) {
	req := NewRequest("POST", mustURL("/x"), nil, nil, strings.NewReader("0123456789"), 5)
	_, err := req.Body()
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestRequest_JSONDecodeCachesAndReportsMalformed(t *testing.T) {
	req := NewRequest("POST", mustURL("/x"), nil, nil, strings.NewReader("not json"), 0)
	var v map[string]any
	err := req.JSON(&v)
	assert.ErrorIs(t, err, ErrMalformedBody)

	err = req.WithContextValue("k", "v").JSON(&v)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestRequest_HeadersLowerCasedAndJoined(t *testing.T) {
	req := NewRequest("GET", mustURL("/x"), map[string][]string{
		"X-Foo": {"a", "b"},
	}, nil, nil, 0)
	v, ok := req.Header("x-foo")
	require.True(t, ok)
	assert.Equal(t, "a, b", v)
}

func mustURL(path string) *url.URL {
	u, err := url.Parse(path)
	if err != nil {
		panic(err)
	}
	return u
}
