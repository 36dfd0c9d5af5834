package confkit_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"insight-memory/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	t.Setenv("INSIGHT_TEST_DIR", "conf")
	tests := []struct {
		name string
		base string
		file string
		want string
	}{
		{"absolute", "/base", "/abs/llm.yaml", "/abs/llm.yaml"},
		{"relative", "/base", "sub/llm.yaml", "/base/sub/llm.yaml"},
		{"env expanded", "/base", "${INSIGHT_TEST_DIR}/llm.yaml", "/base/conf/llm.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, confkit.ResolvePath(tt.base, tt.file))
		})
	}
}

type sectionConf struct {
	Name  string
	Limit int `json:",default=7"`
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "section.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Name: ${INSIGHT_SECTION_NAME}\n"), 0o600))
	t.Setenv("INSIGHT_SECTION_NAME", "weekly")

	cfg, err := confkit.LoadFile[sectionConf](path, true)
	require.NoError(t, err)
	require.Equal(t, "weekly", cfg.Name)
	require.Equal(t, 7, cfg.Limit)

	_, err = confkit.LoadFile[sectionConf](filepath.Join(dir, "missing.yaml"), false)
	require.Error(t, err)
}

func TestSectionHydrate(t *testing.T) {
	t.Run("empty file is disabled", func(t *testing.T) {
		var s confkit.Section[sectionConf]
		err := s.Hydrate("/base", func(string) (*sectionConf, error) {
			t.Fatal("loader must not run")
			return nil, nil
		})
		require.NoError(t, err)
		require.False(t, s.Enabled())
	})

	t.Run("resolves against base", func(t *testing.T) {
		s := confkit.Section[sectionConf]{File: "llm.yaml"}
		err := s.Hydrate("/base", func(p string) (*sectionConf, error) {
			require.Equal(t, "/base/llm.yaml", p)
			return &sectionConf{Name: "x"}, nil
		})
		require.NoError(t, err)
		require.True(t, s.Enabled())
		require.Equal(t, "/base/llm.yaml", s.File)
		require.Equal(t, "x", s.Value.Name)
	})

	t.Run("loader error", func(t *testing.T) {
		boom := errors.New("boom")
		s := confkit.Section[sectionConf]{File: "llm.yaml"}
		require.ErrorIs(t, s.Hydrate("/base", func(string) (*sectionConf, error) { return nil, boom }), boom)
		require.False(t, s.Enabled())
	})
}

func TestProjectPath(t *testing.T) {
	p, err := confkit.ProjectPath("etc/insight.yaml")
	require.NoError(t, err)
	_, statErr := os.Stat(p)
	require.NoError(t, statErr)
}
