package integration

import (
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mergington/activity-registry/test-integration/activity-api/helpers"
)

var _ = Describe("Activity Registration", Label("registration"), func() {
	var serverHelper *helpers.ServerTestHelper

	BeforeEach(func() {
		serverHelper = helpers.NewServerTestHelper(ctx, "")
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
	})

	Context("Listing activities", func() {
		It("should serve the built-in Mergington catalog", func() {
			catalog := serverHelper.ListActivities()

			Expect(catalog).To(HaveLen(9))
			Expect(catalog).To(HaveKey("Chess Club"))
			Expect(catalog["Chess Club"].MaxParticipants).To(Equal(12))
			Expect(catalog["Chess Club"].Participants).To(ConsistOf(
				"michael@mergington.edu", "daniel@mergington.edu",
			))
		})

		It("should serve a single activity by name", func() {
			resp, err := serverHelper.Get("/activities/Programming%20Class")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = serverHelper.Get("/activities/Knitting")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("Signing up and unregistering", func() {
		It("should round trip a participant", func() {
			email := "testuser@example.com"

			status, body := serverHelper.Signup("Chess Club", email)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(HaveKeyWithValue("message", "Signed up testuser@example.com for Chess Club"))
			Expect(serverHelper.ListActivities()["Chess Club"].Participants).To(ContainElement(email))

			afterSignup := serverHelper.ListActivities()
			status, body = serverHelper.Signup("Chess Club", email)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(HaveKey("detail"))
			Expect(serverHelper.ListActivities()).To(Equal(afterSignup))
			Expect(occurrences(afterSignup["Chess Club"].Participants, email)).To(Equal(1))

			status, body = serverHelper.Unregister("Chess Club", email)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(HaveKeyWithValue("message", "Unregistered testuser@example.com from Chess Club"))
			Expect(serverHelper.ListActivities()["Chess Club"].Participants).NotTo(ContainElement(email))

			afterUnregister := serverHelper.ListActivities()
			status, _ = serverHelper.DeleteRegistration("Chess Club", email)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(serverHelper.ListActivities()).To(Equal(afterUnregister))
		})

		It("should report unknown activities as not found", func() {
			before := serverHelper.ListActivities()
			status, body := serverHelper.Signup("NoSuchActivity", "someone@example.com")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(HaveKeyWithValue("detail", "Activity not found"))

			status, _ = serverHelper.Unregister("NoSuchActivity", "someone@example.com")
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(serverHelper.ListActivities()).To(Equal(before))
		})

		It("should not let concurrent signups overfill an activity", func() {
			// Math Club seeds 2 of 10 places
			const attempts = 25
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				statuses = map[int]int{}
			)

			for i := range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					status, _ := serverHelper.Signup("Math Club", helpers.StudentEmail(i))
					mu.Lock()
					statuses[status]++
					mu.Unlock()
				}()
			}
			wg.Wait()

			Expect(statuses[http.StatusOK]).To(Equal(8))
			Expect(statuses[http.StatusBadRequest]).To(Equal(attempts - 8))
			Expect(serverHelper.ListActivities()["Math Club"].Participants).To(HaveLen(10))
		})
	})

	Context("Health endpoints", func() {
		It("should report healthy and expose the version", func() {
			resp, err := serverHelper.Get("/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = serverHelper.Get("/version")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should not expose metrics without Prometheus", func() {
			resp, err := serverHelper.Get("/metrics")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})

func occurrences(participants []string, email string) int {
	n := 0
	for _, p := range participants {
		if p == email {
			n++
		}
	}
	return n
}
