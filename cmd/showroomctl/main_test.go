package main

import (
	"bytes"
	"testing"

	"car-showroom/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestClassifyPhone(t *testing.T) {
	tests := []struct {
		in   *string
		want phoneClass
	}{
		{nil, phoneMissing},
		{strPtr(""), phoneMissing},
		{strPtr("(19) 98765-4321"), phoneMasked},
		{strPtr("19987654321"), phoneLegacy},
		{strPtr("1998765432"), phoneLegacy},
		{strPtr("+55 19 98765-4321"), phoneInvalid},
		{strPtr("(19) 9876-4321"), phoneInvalid},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyPhone(tt.in), deref(tt.in))
	}
}

func TestWritePhoneAudit(t *testing.T) {
	docs := []*domain.ListingDocument{
		{ID: "a", Name: strPtr("CIVIC"), WhatsApp: strPtr("(19) 98765-4321")},
		{ID: "b", Name: strPtr("COROLLA"), WhatsApp: strPtr("19987654321")},
		{ID: "c"},
	}

	var buf bytes.Buffer
	require.NoError(t, writePhoneAudit(&buf, docs))

	out := buf.String()
	assert.NotContains(t, out, "CIVIC")
	assert.Contains(t, out, "COROLLA")
	assert.Contains(t, out, "legacy")
	assert.Contains(t, out, "3 listings: 1 masked, 1 legacy, 1 missing, 0 invalid")
}

func TestCommandTree(t *testing.T) {
	want := [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"create-admin"},
		{"admins", "list"},
		{"settings", "show"},
		{"prune-tokens"},
		{"audit-phones"},
	}
	for _, path := range want {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	flag := createAdminCmd.Flags().Lookup("email")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}
