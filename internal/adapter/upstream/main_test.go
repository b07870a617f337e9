package upstream

import (
	"os"
	"testing"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/entity"
)

func TestMain(m *testing.M) {
	entity.UseNumericJSON()
	os.Exit(m.Run())
}
