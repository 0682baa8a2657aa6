package book

// PriceLevel is a FIFO queue of orders resting at a single price.
// TotalQty tracks the sum of Remaining() across queued orders; the
// matching loop and in-place amends keep it in sync via Reduce.
type PriceLevel struct {
	Price int64

	head *Order
	tail *Order

	TotalQty   int64
	OrderCount int
}

func (p *PriceLevel) Enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	o.level = p
	p.TotalQty += o.Remaining()
	p.OrderCount++
}

func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}

	p.head = o.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}

	o.next = nil
	o.prev = nil
	o.level = nil

	p.TotalQty -= o.Remaining()
	p.OrderCount--

	return o
}

// Unlink removes an order from anywhere in the queue. Used by cancel
// and by amends that lose time priority.
func (p *PriceLevel) Unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}

	o.next = nil
	o.prev = nil
	o.level = nil

	p.TotalQty -= o.Remaining()
	p.OrderCount--
}

// Reduce adjusts TotalQty after a fill or an in-place quantity change
// of a queued order. delta may be negative for a quantity increase.
func (p *PriceLevel) Reduce(delta int64) {
	p.TotalQty -= delta
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Head returns the order with time priority at this level. Read-only.
func (p *PriceLevel) Head() *Order {
	return p.head
}
