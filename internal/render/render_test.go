package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"A",
		"@startuml\nAlice -> Bob: hello\n@enduml",
		"@startuml\nactor Utilisateur\nUtilisateur -> Système : connexion ✓\n@enduml",
		strings.Repeat("@startuml\nclass Foo\n@enduml\n", 50),
	}
	for _, markup := range cases {
		encoded, err := Encode(markup)
		require.NoError(t, err)
		assert.Zero(t, len(encoded)%4, "encoded length must be a multiple of 4")
		for _, r := range encoded {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
		}

		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, markup, decoded)
	}
}

func TestDecode_RejectsBadInput(t *testing.T) {
	_, err := Decode("abc")
	assert.Error(t, err)
	_, err = Decode("!!!!")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)

	f, err = ParseFormat(" PNG ")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestRendererURL(t *testing.T) {
	r := &Renderer{ServerURL: "http://plantuml.local/plantuml/"}
	u, err := r.URL(FormatSVG, "@startuml\n@enduml")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "http://plantuml.local/plantuml/svg/"), u)

	decoded, err := Decode(strings.TrimPrefix(u, "http://plantuml.local/plantuml/svg/"))
	require.NoError(t, err)
	assert.Equal(t, "@startuml\n@enduml", decoded)

	u, err = (&Renderer{}).URL(FormatPNG, "x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, DefaultServerURL+"/png/"))
}

func TestRendererRender(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte("<svg/>"))
	}))
	defer srv.Close()

	r := &Renderer{ServerURL: srv.URL, HTTPClient: srv.Client()}
	img, err := r.Render(context.Background(), FormatSVG, "@startuml\nA -> B\n@enduml")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(img.Data))
	assert.Equal(t, "image/svg+xml", img.ContentType)

	require.True(t, strings.HasPrefix(gotPath, "/svg/"))
	decoded, err := Decode(strings.TrimPrefix(gotPath, "/svg/"))
	require.NoError(t, err)
	assert.Equal(t, "@startuml\nA -> B\n@enduml", decoded)
}

func TestRendererRender_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlantUML-Diagram-Error", "Syntax Error?")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("<svg>error</svg>"))
	}))
	defer srv.Close()

	r := &Renderer{ServerURL: srv.URL, HTTPClient: srv.Client()}
	_, err := r.Render(context.Background(), FormatSVG, "@startuml\nbroken\n@enduml")
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, "Syntax Error?", serr.Detail)
}

func TestRendererRender_EmptyMarkup(t *testing.T) {
	_, err := (&Renderer{}).Render(context.Background(), FormatSVG, "  ")
	assert.Error(t, err)
}
