package loopnic

import "testing"

func TestInjectThenRecv(t *testing.T) {
	n := New()
	if err := n.Inject([]byte("outbound")); err != nil {
		t.Fatalf("inject: %v", err)
	}
	buf := make([]byte, 64)
	l, err := n.Recv(buf)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if string(buf[:l]) != "outbound" {
		t.Fatalf("got %q", buf[:l])
	}
}

func TestSendThenDelivered(t *testing.T) {
	n := New()
	if err := n.Send([]byte("inbound")); err != nil {
		t.Fatalf("send: %v", err)
	}
	p, ok := n.Delivered()
	if !ok {
		t.Fatal("expected a delivered packet")
	}
	if string(p) != "inbound" {
		t.Fatalf("got %q", p)
	}
}

func TestRecvWouldBlockWhenEmpty(t *testing.T) {
	n := New()
	buf := make([]byte, 64)
	if _, err := n.Recv(buf); err == nil {
		t.Fatal("expected ErrWouldBlock on empty queue")
	}
}

func TestDeliveredFalseWhenEmpty(t *testing.T) {
	n := New()
	if _, ok := n.Delivered(); ok {
		t.Fatal("expected no delivered packet on an empty NIC")
	}
}
