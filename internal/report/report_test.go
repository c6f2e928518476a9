package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/dupekeeper/internal/types"
)

func TestWriteCSV(t *testing.T) {
	groups := []types.DuplicateGroup{
		types.NewDuplicateGroup(types.ExactKey{Digest: "ab12"},
			types.FileEntry{Path: "/a/1.txt", Size: 5},
			[]types.FileEntry{{Path: "/c/1.txt", Size: 5}, {Path: "/b/1.txt", Size: 5}}),
		types.NewDuplicateGroup(types.PerceptualKey{Metric: "phash", Prefix: "00ff00ff"},
			types.FileEntry{Path: "/img/a, b.png", Size: 9}, nil),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, groups))

	want := "kind,group_key,size_bytes,keep_path,others_count,other_path\n" +
		"exact,ab12,5,/a/1.txt,2,/b/1.txt\n" +
		"exact,ab12,5,/a/1.txt,2,/c/1.txt\n" +
		"perceptual,perc:00ff00ff,9,\"/img/a, b.png\",0,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "kind,group_key,size_bytes,keep_path,others_count,other_path\n", buf.String())
}
