package entity

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	UseNumericJSON()
	os.Exit(m.Run())
}
