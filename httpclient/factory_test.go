package httpclient

import (
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

var _ = Describe("HTTP Client Factory", func() {
	var f *Factory
	var server *ghttp.Server

	BeforeEach(func() {
		f = NewFactory(logrus.New())
		server = ghttp.NewServer()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("GetOrCreateClient", func() {
		It("should reuse the client for the same key", func() {
			cfg := ClientConfig{Timeout: time.Second}
			first := f.GetOrCreateClient(ClientKey(cfg), cfg)
			second := f.GetOrCreateClient(ClientKey(cfg), cfg)
			Expect(first).To(BeIdenticalTo(second))
			Expect(f.Len()).To(Equal(1))
		})

		It("should create distinct clients for distinct configurations", func() {
			a := ClientConfig{Timeout: time.Second}
			b := ClientConfig{Timeout: time.Second, SSLInsecure: true}
			Expect(ClientKey(a)).NotTo(Equal(ClientKey(b)))
			Expect(f.GetOrCreateClient(ClientKey(a), a)).NotTo(BeIdenticalTo(f.GetOrCreateClient(ClientKey(b), b)))
			Expect(f.Len()).To(Equal(2))
		})

		It("should key on the trusted certificate contents", func() {
			a := ClientConfig{TrustedCerts: "-----BEGIN CERTIFICATE-----\nA\n-----END CERTIFICATE-----"}
			b := ClientConfig{TrustedCerts: "-----BEGIN CERTIFICATE-----\nB\n-----END CERTIFICATE-----"}
			Expect(ClientKey(a)).NotTo(Equal(ClientKey(b)))
			Expect(ClientKey(a)).To(Equal(ClientKey(ClientConfig{TrustedCerts: a.TrustedCerts})))
			Expect(ClientKey(a)).NotTo(ContainSubstring("BEGIN CERTIFICATE"))
		})

		It("should leave the timeout unset when none is configured", func() {
			client := f.GetOrCreateClient("no-timeout", ClientConfig{})
			Expect(client.Timeout).To(BeZero())
		})

		It("should send requests through the plain transport", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/ping"),
					ghttp.RespondWith(http.StatusOK, "pong"),
				))

			client := f.GetOrCreateClient("plain", ClientConfig{})
			resp, err := client.Get(server.URL() + "/ping")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("pong"))
		})
	})

	Describe("Metrics instrumentation", func() {
		It("should count requests by code and method", func() {
			reg := prometheus.NewRegistry()
			mc, err := NewMetricsConfig(reg, "gocare_test")
			Expect(err).NotTo(HaveOccurred())

			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/patients"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, []string{"p1"}),
				))

			cfg := ClientConfig{EnableMetrics: true, MetricsConfig: mc}
			client := f.GetOrCreateClient(ClientKey(cfg), cfg)
			resp, err := client.Get(server.URL() + "/patients")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(testutil.ToFloat64(mc.RequestsCounter.WithLabelValues("200", "get"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(mc.InFlightGauge)).To(Equal(0.0))
		})

		It("should keep clients for different registries apart", func() {
			reg1 := prometheus.NewRegistry()
			reg2 := prometheus.NewRegistry()
			mc1, err := NewMetricsConfig(reg1, "gocare_test")
			Expect(err).NotTo(HaveOccurred())
			mc2, err := NewMetricsConfig(reg2, "gocare_test")
			Expect(err).NotTo(HaveOccurred())

			cfg1 := ClientConfig{EnableMetrics: true, MetricsConfig: mc1}
			cfg2 := ClientConfig{EnableMetrics: true, MetricsConfig: mc2}
			Expect(ClientKey(cfg1)).NotTo(Equal(ClientKey(cfg2)))

			first := f.GetOrCreateClient(ClientKey(cfg1), cfg1)
			second := f.GetOrCreateClient(ClientKey(cfg2), cfg2)
			Expect(first).NotTo(BeIdenticalTo(second))

			again, err := NewMetricsConfig(reg1, "gocare_test")
			Expect(err).NotTo(HaveOccurred())
			cfg3 := ClientConfig{EnableMetrics: true, MetricsConfig: again}
			Expect(f.GetOrCreateClient(ClientKey(cfg3), cfg3)).To(BeIdenticalTo(first))

			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "ok"))
			resp, err := second.Get(server.URL() + "/health")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(testutil.ToFloat64(mc2.RequestsCounter.WithLabelValues("200", "get"))).To(Equal(1.0))
			Expect(testutil.CollectAndCount(mc1.RequestsCounter)).To(Equal(0))
		})

		It("should reuse instruments registered earlier", func() {
			reg := prometheus.NewRegistry()
			first, err := NewMetricsConfig(reg, "gocare_test")
			Expect(err).NotTo(HaveOccurred())
			second, err := NewMetricsConfig(reg, "gocare_test")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.RequestsCounter).To(BeIdenticalTo(first.RequestsCounter))
		})
	})
})
