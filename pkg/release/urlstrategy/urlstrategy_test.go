package urlstrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCDNStrategy(t *testing.T) {
	s := NewCDNStrategy("https://cdn.example.com/releases/")
	assert.Equal(t, "https://cdn.example.com/releases/differ/dmg/Differ-1.0.dmg", s.PublicURL("differ/dmg/Differ-1.0.dmg"))
	assert.Equal(t, "https://cdn.example.com/releases/differ/My%20App.zip", s.PublicURL("differ/My App.zip"))

	local := NewCDNStrategy("")
	assert.Equal(t, "/differ/a.zip", local.PublicURL("differ/a.zip"))
}

func TestS3Strategy(t *testing.T) {
	tests := []struct {
		name     string
		strategy S3Strategy
		expected string
	}{
		{
			name:     "virtual hosted default region",
			strategy: S3Strategy{Bucket: "releases"},
			expected: "https://releases.s3.us-east-1.amazonaws.com/differ/a.zip",
		},
		{
			name:     "path style",
			strategy: S3Strategy{Bucket: "releases", Region: "eu-west-1", UsePathStyle: true},
			expected: "https://s3.eu-west-1.amazonaws.com/releases/differ/a.zip",
		},
		{
			name:     "custom endpoint path style",
			strategy: S3Strategy{Bucket: "releases", Endpoint: "http://localhost:9000/", UsePathStyle: true},
			expected: "http://localhost:9000/releases/differ/a.zip",
		},
		{
			name:     "custom endpoint virtual hosted",
			strategy: S3Strategy{Bucket: "releases", Endpoint: "https://storage.example.com"},
			expected: "https://releases.storage.example.com/differ/a.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.strategy.PublicURL("differ/a.zip"))
		})
	}
}

func TestNewURLStrategy(t *testing.T) {
	s, err := NewURLStrategy(Config{Type: StrategyTypeCDN, CDNBaseURL: "https://cdn.example.com"})
	require.NoError(t, err)
	assert.IsType(t, &CDNStrategy{}, s)

	s, err = NewURLStrategy(Config{Type: StrategyTypeS3, Bucket: "releases"})
	require.NoError(t, err)
	assert.IsType(t, &S3Strategy{}, s)

	_, err = NewURLStrategy(Config{Type: StrategyTypeCDN})
	assert.Error(t, err)

	_, err = NewURLStrategy(Config{Type: StrategyTypeS3})
	assert.Error(t, err)

	_, err = NewURLStrategy(Config{Type: "unknown"})
	assert.Error(t, err)
}
