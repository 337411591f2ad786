package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_ReadPermissions(t *testing.T) {
	tests := []struct {
		name   string
		doc    Document
		want   []string
		wantOK bool
	}{
		{
			name:   "string slice",
			doc:    Document{"permissions": map[string]interface{}{"read": []string{"group:__world__"}}},
			want:   []string{"group:__world__"},
			wantOK: true,
		},
		{
			name:   "decoded json list",
			doc:    Document{"permissions": map[string]interface{}{"read": []interface{}{"acct:u@h", "group:x"}}},
			want:   []string{"acct:u@h", "group:x"},
			wantOK: true,
		},
		{
			name: "non-string principal",
			doc:  Document{"permissions": map[string]interface{}{"read": []interface{}{"group:x", 3}}},
		},
		{
			name: "missing permissions",
			doc:  Document{},
		},
		{
			name: "missing read",
			doc:  Document{"permissions": map[string]interface{}{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.doc.ReadPermissions()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_User(t *testing.T) {
	assert.Equal(t, "acct:u@h", Document{"user": "acct:u@h"}.User())
	assert.Equal(t, "", Document{}.User())
}
