package proposals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janschaeferjohann/seriem-agent/errors"
)

func strPtr(s string) *string {
	return &s
}

func TestFileChangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  FileChange
		wantErr bool
	}{
		{
			name:   "valid create",
			change: FileChange{Path: "notes.md", Operation: OperationCreate, After: strPtr("hello\n")},
		},
		{
			name:   "valid update",
			change: FileChange{Path: "main.py", Operation: OperationUpdate, Before: strPtr("a\n"), After: strPtr("b\n")},
		},
		{
			name:   "valid delete",
			change: FileChange{Path: "old.txt", Operation: OperationDelete, Before: strPtr("gone\n")},
		},
		{
			name:   "valid create of empty file",
			change: FileChange{Path: "empty.txt", Operation: OperationCreate, After: strPtr("")},
		},
		{
			name:    "create with before content",
			change:  FileChange{Path: "notes.md", Operation: OperationCreate, Before: strPtr("x"), After: strPtr("y")},
			wantErr: true,
		},
		{
			name:    "create without after content",
			change:  FileChange{Path: "notes.md", Operation: OperationCreate},
			wantErr: true,
		},
		{
			name:    "update missing before",
			change:  FileChange{Path: "main.py", Operation: OperationUpdate, After: strPtr("b")},
			wantErr: true,
		},
		{
			name:    "update missing after",
			change:  FileChange{Path: "main.py", Operation: OperationUpdate, Before: strPtr("a")},
			wantErr: true,
		},
		{
			name:    "delete with after content",
			change:  FileChange{Path: "old.txt", Operation: OperationDelete, Before: strPtr("x"), After: strPtr("y")},
			wantErr: true,
		},
		{
			name:    "empty path",
			change:  FileChange{Operation: OperationCreate, After: strPtr("x")},
			wantErr: true,
		},
		{
			name:    "unknown operation",
			change:  FileChange{Path: "a.txt", Operation: "rename", Before: strPtr("x"), After: strPtr("y")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty string", "", nil},
		{"single line no newline", "a", []string{"a"}},
		{"single line with newline", "a\n", []string{"a"}},
		{"trailing blank line kept", "a\n\n", []string{"a", ""}},
		{"multiple lines", "a\nb\nc\n", []string{"a", "b", "c"}},
		{"lone newline", "\n", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLines(tt.content))
		})
	}
}

func TestLineAccounting(t *testing.T) {
	t.Run("create counts all lines as added", func(t *testing.T) {
		c := FileChange{Path: "new.txt", Operation: OperationCreate, After: strPtr("a\nb\nc\n")}
		assert.Equal(t, 3, c.LinesAdded())
		assert.Equal(t, 0, c.LinesRemoved())
	})

	t.Run("delete counts all lines as removed", func(t *testing.T) {
		c := FileChange{Path: "old.txt", Operation: OperationDelete, Before: strPtr("a\nb\n")}
		assert.Equal(t, 0, c.LinesAdded())
		assert.Equal(t, 2, c.LinesRemoved())
	})

	t.Run("update counts replaced line both ways", func(t *testing.T) {
		c := FileChange{
			Path:      "main.py",
			Operation: OperationUpdate,
			Before:    strPtr("a\nb\n"),
			After:     strPtr("a\nc\n"),
		}
		assert.Equal(t, 1, c.LinesAdded())
		assert.Equal(t, 1, c.LinesRemoved())
	})

	t.Run("pure reorder counts as no change", func(t *testing.T) {
		c := FileChange{
			Path:      "list.txt",
			Operation: OperationUpdate,
			Before:    strPtr("a\nb\n"),
			After:     strPtr("b\na\n"),
		}
		assert.Equal(t, 0, c.LinesAdded())
		assert.Equal(t, 0, c.LinesRemoved())
	})

	t.Run("create of empty file adds zero lines", func(t *testing.T) {
		c := FileChange{Path: "empty.txt", Operation: OperationCreate, After: strPtr("")}
		assert.Equal(t, 0, c.LinesAdded())
	})
}

func TestProposalAggregates(t *testing.T) {
	p := &Proposal{
		ID:      "aabbccdd",
		Summary: "rework docs",
		Changes: []FileChange{
			{Path: "docs/a.md", Operation: OperationCreate, After: strPtr("one\ntwo\n")},
			{Path: "docs/b.md", Operation: OperationDelete, Before: strPtr("bye\n")},
			{Path: "docs/c.md", Operation: OperationUpdate, Before: strPtr("x\ny\n"), After: strPtr("x\nz\n")},
		},
	}

	assert.Equal(t, []string{"docs/a.md", "docs/b.md", "docs/c.md"}, p.FilesAffected())
	assert.Equal(t, 3, p.LinesAdded())
	assert.Equal(t, 2, p.LinesRemoved())
}

func TestDefaultSummary(t *testing.T) {
	tests := []struct {
		name   string
		change FileChange
		want   string
	}{
		{
			name:   "create",
			change: FileChange{Path: "notes.md", Operation: OperationCreate, After: strPtr("x")},
			want:   "Create notes.md",
		},
		{
			name:   "update",
			change: FileChange{Path: "src/main.py", Operation: OperationUpdate, Before: strPtr("a"), After: strPtr("b")},
			want:   "Update src/main.py",
		},
		{
			name:   "delete",
			change: FileChange{Path: "tmp.log", Operation: OperationDelete, Before: strPtr("x")},
			want:   "Delete tmp.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultSummary(tt.change))
		})
	}
}
