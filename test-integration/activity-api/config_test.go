package integration

import (
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mergington/activity-registry/test-integration/activity-api/helpers"
)

var _ = Describe("Configured Registry", Label("config"), func() {
	var (
		tempDir      string
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("activity-config-test-")
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
			serverHelper = nil
		}
		cleanupTempDir(tempDir)
	})

	start := func(content string) {
		configFile := helpers.WriteConfigYAML(tempDir, content)
		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	}

	Context("With capacity enforcement", func() {
		It("should reject signups once the activity is full", func() {
			start(`
activities:
  Robotics:
    description: Build robots
    schedule: Mondays
    maxParticipants: 1
`)
			status, _ := serverHelper.Signup("Robotics", "ada@mergington.edu")
			Expect(status).To(Equal(http.StatusOK))

			status, body := serverHelper.Signup("Robotics", "grace@mergington.edu")
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(HaveKeyWithValue("detail", "Activity is full"))
		})
	})

	Context("Without capacity enforcement", func() {
		It("should accept signups beyond maxParticipants", func() {
			start(`
enforceCapacity: false
activities:
  Robotics:
    description: Build robots
    schedule: Mondays
    maxParticipants: 1
    participants: [ada@mergington.edu]
`)
			status, _ := serverHelper.Signup("Robotics", "grace@mergington.edu")
			Expect(status).To(Equal(http.StatusOK))
			Expect(serverHelper.ListActivities()["Robotics"].Participants).To(HaveLen(2))
		})
	})

	Context("With the Prometheus exporter", func() {
		It("should serve registry and HTTP metrics", func() {
			start(`
telemetry:
  enabled: true
  metrics:
    enabled: true
    prometheus: true
    disableOTLP: true
`)
			status, _ := serverHelper.Signup("Art Club", "isla@mergington.edu")
			Expect(status).To(Equal(http.StatusOK))

			resp, err := serverHelper.Get("/metrics")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("activity_registry_registration_changes"))
			Expect(string(data)).To(ContainSubstring("activity_registry_http_requests"))
			Expect(string(data)).NotTo(ContainSubstring("isla@mergington.edu"))
		})
	})
})
