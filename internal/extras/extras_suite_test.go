package extras_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExtras(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extras Suite")
}
