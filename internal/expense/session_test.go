package expense

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-report/internal/scanning"
)

var _ = Describe("Options", func() {
	var opts Options

	BeforeEach(func() {
		opts = DefaultOptions()
	})

	It("should include the capped category", func() {
		Expect(opts.Categories).To(ContainElement(CategoryMeals))
	})

	It("should accept a candidate built from its lists", func() {
		Expect(opts.Validate(meal(day(2024, 3, 15), "10.00"))).To(Succeed())
	})

	DescribeTable("rejecting invalid candidates",
		func(mutate func(*Candidate)) {
			c := meal(day(2024, 3, 15), "10.00")
			mutate(&c)
			Expect(opts.Validate(c)).To(MatchError(ErrInvalidExpense))
		},
		Entry("unknown project", func(c *Candidate) { c.Project = "Outro" }),
		Entry("unknown professional", func(c *Candidate) { c.Professional = "" }),
		Entry("unknown category", func(c *Candidate) { c.Category = "Cinema" }),
		Entry("unknown activity", func(c *Candidate) { c.Activity = "Férias" }),
		Entry("missing date", func(c *Candidate) { c.Date = time.Time{} }),
		Entry("zero amount", func(c *Candidate) { c.Amount = dec("0") }),
		Entry("negative amount", func(c *Candidate) { c.Amount = dec("-5.00") }),
	)
})

var _ = Describe("Session", func() {
	var session *Session

	BeforeEach(func() {
		session = NewSession("s1")
	})

	It("should start empty", func() {
		Expect(session.Expenses()).To(BeEmpty())
		_, ok := session.Prefill()
		Expect(ok).To(BeFalse())
	})

	It("should keep insertion order for expenses on the same date", func() {
		for _, amount := range []string{"1.00", "2.00", "3.00"} {
			c := meal(day(2024, 3, 15), amount)
			session.record(c, func(d Decision) Expense {
				return Expense{Date: c.Date, Category: c.Category, Amount: d.Amount}
			})
		}
		list := session.Expenses()
		Expect(list[0].Amount.Equal(dec("1.00"))).To(BeTrue())
		Expect(list[2].Amount.Equal(dec("3.00"))).To(BeTrue())
	})

	It("should keep insertion order in Added while Expenses sorts by date", func() {
		for _, d := range []int{16, 14, 15} {
			c := meal(day(2024, 3, d), "1.00")
			session.record(c, func(Decision) Expense { return Expense{Date: c.Date} })
		}

		added := session.Added()
		Expect(added[0].Date).To(Equal(day(2024, 3, 16)))
		Expect(added[1].Date).To(Equal(day(2024, 3, 14)))
		Expect(added[2].Date).To(Equal(day(2024, 3, 15)))

		sorted := session.Expenses()
		Expect(sorted[0].Date).To(Equal(day(2024, 3, 14)))
		Expect(sorted[2].Date).To(Equal(day(2024, 3, 16)))
	})

	It("should return copies of the expense list", func() {
		c := meal(day(2024, 3, 15), "1.00")
		session.record(c, func(d Decision) Expense { return Expense{Date: c.Date, Notes: "a"} })
		list := session.Expenses()
		list[0].Notes = "changed"
		Expect(session.Expenses()[0].Notes).To(Equal("a"))
	})

	It("should not exceed the cap under concurrent submissions", func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c := meal(day(2024, 3, 15), "9.00")
				session.record(c, func(d Decision) Expense {
					return Expense{Date: c.Date, Category: c.Category, Amount: d.Amount}
				})
			}()
		}
		wg.Wait()

		Expect(mealSum(session.Expenses(), day(2024, 3, 15)).Equal(DailyCap)).To(BeTrue())
	})
})

var _ = Describe("SessionStore", func() {
	var (
		timeSrc *mockTimeSource
		store   *SessionStore
	)

	BeforeEach(func() {
		timeSrc = &mockTimeSource{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
		store = NewSessionStore(time.Hour, timeSrc)
	})

	It("should find a created session", func() {
		s := store.Create()
		Expect(s.ID).NotTo(BeEmpty())
		got, ok := store.Get(s.ID)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(s))
	})

	It("should keep sessions apart", func() {
		a, b := store.Create(), store.Create()
		Expect(a.ID).NotTo(Equal(b.ID))
		a.SetPrefill(scanning.ExtractionResult{})
		_, ok := b.Prefill()
		Expect(ok).To(BeFalse())
	})

	It("should not find unknown sessions", func() {
		_, ok := store.Get("missing")
		Expect(ok).To(BeFalse())
	})

	It("should expire idle sessions", func() {
		s := store.Create()
		timeSrc.now = timeSrc.now.Add(61 * time.Minute)
		_, ok := store.Get(s.ID)
		Expect(ok).To(BeFalse())
		Expect(store.size()).To(BeZero())
	})

	It("should keep sessions that stay in use", func() {
		s := store.Create()
		for i := 0; i < 3; i++ {
			timeSrc.now = timeSrc.now.Add(45 * time.Minute)
			_, ok := store.Get(s.ID)
			Expect(ok).To(BeTrue())
		}
	})

	It("should sweep expired sessions when creating", func() {
		store.Create()
		store.Create()
		timeSrc.now = timeSrc.now.Add(2 * time.Hour)
		store.Create()
		Expect(store.size()).To(Equal(1))
	})

	It("should never expire with a zero ttl", func() {
		store = NewSessionStore(0, timeSrc)
		s := store.Create()
		timeSrc.now = timeSrc.now.Add(1000 * time.Hour)
		_, ok := store.Get(s.ID)
		Expect(ok).To(BeTrue())
	})
})
