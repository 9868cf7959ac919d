package webkit

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_JSONRoundTrips(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	in := payload{Name: "x", N: 7}
	resp, err := JSONResponse(200, in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, json.Unmarshal(resp.Body(), &out))
	assert.Equal(t, in, out)
}

func TestResponse_CopyWithNoEditIsIdempotent(t *testing.T) {
	r := NewResponse(200, []byte("hi")).WithHeader("x-a", "1")
	same := r.CopyWith(ResponseEdit{})
	assert.Equal(t, r.Status(), same.Status())
	assert.Equal(t, r.Body(), same.Body())
	assert.Equal(t, r.Headers(), same.Headers())
}

func TestResponse_CopyWithMergesHeaders(t *testing.T) {
	r := NewResponse(200, nil).WithHeader("x-a", "1")
	r2 := r.WithHeader("x-b", "2")
	v, ok := r2.Header("x-a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = r2.Header("x-b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestResponse_WriteToPreservesLowerCaseHeaderKeys(t *testing.T) {
	r := NewResponse(200, []byte("ok")).WithHeader("x-custom-header", "v")
	rec := httptest.NewRecorder()
	require.NoError(t, r.WriteTo(rec))

	_, hasLower := rec.Result().Header["x-custom-header"]
	assert.True(t, hasLower)
}

func TestResponse_StreamAndBufferedAreMutuallyExclusive(t *testing.T) {
	r := NewResponse(200, []byte("buf"))
	assert.False(t, r.IsStream())
	assert.Equal(t, []byte("buf"), r.Body())

	streamed := r.CopyWith(ResponseEdit{HasStream: true, Stream: strings.NewReader("stream")})
	assert.True(t, streamed.IsStream())
	assert.Empty(t, streamed.Body())
}

func TestResponse_FactoriesSetCanonicalContentTypes(t *testing.T) {
	html := HTMLResponse(200, "<p>hi</p>")
	v, ok := html.Header("content-type")
	require.True(t, ok)
	assert.Equal(t, "text/html; charset=utf-8", v)

	bytesResp := BytesResponse(200, []byte{0x01, 0x02})
	v, ok = bytesResp.Header("content-type")
	require.True(t, ok)
	assert.Equal(t, "application/octet-stream", v)

	redirect := RedirectResponse(302, "https://example.com/next")
	v, ok = redirect.Header("location")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/next", v)
	assert.Equal(t, 302, redirect.Status())
}

func TestResponse_StatusHelpersProduceJSONErrorBody(t *testing.T) {
	cases := []struct {
		resp   Response
		status int
	}{
		{NotFound("missing"), 404},
		{BadRequest("bad input"), 400},
		{Unauthorized("no token"), 401},
		{Forbidden("nope"), 403},
		{InternalServerError("boom"), 500},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.resp.Status())
		v, ok := c.resp.Header("content-type")
		require.True(t, ok)
		assert.Equal(t, "application/json; charset=utf-8", v)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(c.resp.Body(), &decoded))
		assert.NotEmpty(t, decoded["error"])
	}
}

func TestResponse_WithHeadersMergesOverridingExisting(t *testing.T) {
	r := NewResponse(200, nil).WithHeader("x-a", "1").WithHeader("x-b", "2")
	merged := r.WithHeaders(map[string]string{"x-b": "override", "x-c": "3"})

	v, _ := merged.Header("x-a")
	assert.Equal(t, "1", v)
	v, _ = merged.Header("x-b")
	assert.Equal(t, "override", v)
	v, _ = merged.Header("x-c")
	assert.Equal(t, "3", v)
}
