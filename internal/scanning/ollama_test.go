package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		ollama *Ollama
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var err error
		ollama, err = NewOllama(server.URL(), "qwen2-vl")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should default the URL and model", func() {
		o, err := NewOllama("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(o.baseURL).To(Equal("http://localhost:11434"))
		Expect(o.model).To(Equal("llava"))
	})

	It("should send the image and return the transcription", func() {
		png := []byte("png-bytes")
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
			ghttp.VerifyContentType("application/json"),
			func(w http.ResponseWriter, r *http.Request) {
				var req ollamaChatRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req.Model).To(Equal("qwen2-vl"))
				Expect(req.Stream).To(BeFalse())
				Expect(req.Messages).To(HaveLen(2))
				Expect(req.Messages[1].Images).To(ConsistOf(base64.StdEncoding.EncodeToString(png)))
			},
			ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", Content: "```\nTOTAL R$ 12,50\n```"},
				Done:    true,
			}),
		))

		text, err := ollama.Recognize(context.Background(), png)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("TOTAL R$ 12,50"))
	})

	It("should return an error on a non-200 response", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))

		_, err := ollama.Recognize(context.Background(), []byte("png"))
		Expect(err).To(MatchError(ContainSubstring("status 500")))
		Expect(err).To(MatchError(ContainSubstring("model not loaded")))
	})

	It("should return an error on an undecodable response", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))

		_, err := ollama.Recognize(context.Background(), []byte("png"))
		Expect(err).To(MatchError(ContainSubstring("decoding response")))
	})

	It("should close without error", func() {
		Expect(ollama.Close()).To(Succeed())
	})
})
