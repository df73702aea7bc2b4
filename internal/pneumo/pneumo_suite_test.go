package pneumo_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPneumo(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pneumo Suite")
}
