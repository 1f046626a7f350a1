package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StepCountTracer", func() {
	var tracer *StepCountTracer

	BeforeEach(func() {
		tracer = NewStepCountTracer(KindFilter(KindFault))
	})

	event := func(parent, what string) {
		task := Task{ID: parent + what, ParentID: parent, Kind: KindVM, What: what}
		tracer.StartTask(task)
		tracer.EndTask(task)
	}

	It("should count the events of in-flight tasks", func() {
		tracer.StartTask(Task{ID: "f1", Kind: KindFault})
		event("f1", "Evict")
		event("f1", "SwapOut")
		tracer.StartTask(Task{ID: "f2", Kind: KindFault})
		event("f2", "Evict")
		tracer.EndTask(Task{ID: "f1"})
		event("f2", "Evict")
		tracer.EndTask(Task{ID: "f2"})

		Expect(tracer.GetStepNames()).To(Equal([]string{"Evict", "SwapOut"}))
		Expect(tracer.GetStepCount("Evict")).To(Equal(uint64(3)))
		Expect(tracer.GetTaskCount("Evict")).To(Equal(uint64(2)))
		Expect(tracer.GetTaskCount("SwapOut")).To(Equal(uint64(1)))
	})

	It("should ignore events without a tracked parent", func() {
		event("", "Mmap")
		tracer.StartTask(Task{ID: "f1", Kind: KindFault})
		tracer.EndTask(Task{ID: "f1"})
		event("f1", "Evict")

		Expect(tracer.GetStepNames()).To(BeEmpty())
	})
})
