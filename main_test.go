package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenAddr(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{"", ":8080"},
		{"8080", ":8080"},
		{"9000", ":9000"},
		{":8081", ":8081"},
		{"0.0.0.0:8080", "0.0.0.0:8080"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, listenAddr(tt.port), "port=%q", tt.port)
	}
}
