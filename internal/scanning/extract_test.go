package scanning

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("ExtractDate", func() {
	var (
		text  string
		date  time.Time
		found bool
	)

	JustBeforeEach(func() {
		date, found = ExtractDate(text)
	})

	When("the text has a four digit year", func() {
		BeforeEach(func() {
			text = "SUPERMERCADO BOM PRECO\nCNPJ 12.345.678/0001-90\n15/03/2024 12:41:07"
		})

		It("should find the date", func() {
			Expect(found).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the text has a two digit year", func() {
		BeforeEach(func() {
			text = "DATA 15/03/24 HORA 12:41"
		})

		It("should fall back to the two digit year", func() {
			Expect(found).To(BeTrue())
			Expect(date).To(Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("the date uses dots or dashes", func() {
		It("should accept dots", func() {
			d, ok := ExtractDate("Emissao: 01.02.2023")
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("should accept dashes", func() {
			d, ok := ExtractDate("Emissao: 28-12-2022")
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(time.Date(2022, time.December, 28, 0, 0, 0, 0, time.UTC)))
		})
	})

	When("several dates appear", func() {
		BeforeEach(func() {
			text = "Emissao 10/01/2024\nValidade 10/02/2024"
		})

		It("should use the first one", func() {
			Expect(found).To(BeTrue())
			Expect(date.Month()).To(Equal(time.January))
		})
	})

	When("the first date is not a real date", func() {
		BeforeEach(func() {
			text = "COD 45/99/2024"
		})

		It("should report no date", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("there is no date", func() {
		BeforeEach(func() {
			text = "OBRIGADO PELA PREFERENCIA"
		})

		It("should report no date", func() {
			Expect(found).To(BeFalse())
		})
	})
})

var _ = Describe("ExtractAmount", func() {
	var (
		text     string
		priority LabelPriority
		amount   decimal.Decimal
		found    bool
	)

	BeforeEach(func() {
		priority = PriorityFirstInText
	})

	JustBeforeEach(func() {
		amount, found = ExtractAmount(text, priority)
	})

	When("the total uses thousands separators", func() {
		BeforeEach(func() {
			text = "ITENS 3\nTOTAL R$ 1.234,56\nCARTAO"
		})

		It("should normalize the amount", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("1234.56"))).To(BeTrue())
		})
	})

	When("the total uses a decimal point", func() {
		BeforeEach(func() {
			text = "Total: 45.90"
		})

		It("should parse the plain decimal", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("45.90"))).To(BeTrue())
		})
	})

	When("the label is in lowercase", func() {
		BeforeEach(func() {
			text = "valor a pagar r$ 32,00"
		})

		It("should match case-insensitively", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.NewFromInt(32))).To(BeTrue())
		})
	})

	When("the value is on the line after the label", func() {
		BeforeEach(func() {
			text = "VALOR TOTAL\nR$ 18,75"
		})

		It("should still find it", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("18.75"))).To(BeTrue())
		})
	})

	When("TOTAL A PAGAR is present", func() {
		BeforeEach(func() {
			text = "TOTAL A PAGAR R$ 99,90"
		})

		It("should read the full label", func() {
			Expect(found).To(BeTrue())
			Expect(amount.Equal(decimal.RequireFromString("99.90"))).To(BeTrue())
		})
	})

	When("SUBTOTAL appears before VALOR TOTAL", func() {
		BeforeEach(func() {
			text = "SUBTOTAL R$ 50,00\nDESCONTO R$ 5,00\nVALOR TOTAL R$ 45,00"
		})

		Context("with first-in-text priority", func() {
			It("should take the first match", func() {
				Expect(found).To(BeTrue())
				Expect(amount.Equal(decimal.NewFromInt(50))).To(BeTrue())
			})
		})

		Context("with label-rank priority", func() {
			BeforeEach(func() {
				priority = PriorityLabelRank
			})

			It("should prefer VALOR TOTAL", func() {
				Expect(found).To(BeTrue())
				Expect(amount.Equal(decimal.NewFromInt(45))).To(BeTrue())
			})
		})
	})

	When("the only total is zero", func() {
		BeforeEach(func() {
			text = "TOTAL 0,00"
		})

		It("should report no amount", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("a thousands group has no decimals", func() {
		BeforeEach(func() {
			text = "TOTAL 1.234"
		})

		It("should not read a truncated value", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("there is no labelled total", func() {
		BeforeEach(func() {
			text = "ARROZ 5KG 25,90\nFEIJAO 8,49"
		})

		It("should report no amount", func() {
			Expect(found).To(BeFalse())
		})
	})
})

var _ = Describe("Extract", func() {
	It("should fill both fields from a typical receipt", func() {
		result := Extract("RESTAURANTE SABOR\n15/03/2024\nTOTAL R$ 1.234,56", PriorityFirstInText)
		Expect(result.Date).NotTo(BeNil())
		Expect(*result.Date).To(Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
		Expect(result.Amount).NotTo(BeNil())
		Expect(result.Amount.Equal(decimal.RequireFromString("1234.56"))).To(BeTrue())
	})

	It("should leave both fields empty on unrecognizable text", func() {
		var result ExtractionResult
		Expect(func() {
			result = Extract("@@## ~~ illegible ~~", PriorityFirstInText)
		}).NotTo(Panic())
		Expect(result.Date).To(BeNil())
		Expect(result.Amount).To(BeNil())
	})

	It("should degrade one field without losing the other", func() {
		result := Extract("TOTAL 12,00", PriorityFirstInText)
		Expect(result.Date).To(BeNil())
		Expect(result.Amount).NotTo(BeNil())
	})
})

var _ = Describe("ExtractionResult.Defaults", func() {
	today := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

	It("should substitute today and the nominal amount", func() {
		date, amount := ExtractionResult{}.Defaults(today)
		Expect(date).To(Equal(today))
		Expect(amount.Equal(DefaultAmount)).To(BeTrue())
	})

	It("should keep extracted values", func() {
		d := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
		a := decimal.NewFromInt(12)
		date, amount := ExtractionResult{Date: &d, Amount: &a}.Defaults(today)
		Expect(date).To(Equal(d))
		Expect(amount.Equal(a)).To(BeTrue())
	})
})

var _ = Describe("ParseLabelPriority", func() {
	It("should accept known values", func() {
		p, ok := ParseLabelPriority("label")
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(PriorityLabelRank))

		p, ok = ParseLabelPriority("")
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(PriorityFirstInText))
	})

	It("should reject unknown values", func() {
		_, ok := ParseLabelPriority("semantic")
		Expect(ok).To(BeFalse())
	})
})
