package termcapture

import "testing"

func TestParseMessage_EngineIOv3(t *testing.T) {
	packets := ParseMessage(`2:4097:42["data","hello"]`)
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2: %v", len(packets), packets)
	}

	var fed []Event
	for _, p := range packets {
		if ev, ok := DecodePacket(p); ok {
			fed = append(fed, ev)
		}
	}
	if len(fed) != 1 || fed[0].Name != "data" || fed[0].Data != "hello" {
		t.Fatalf("decoded events = %+v, want one data=hello event", fed)
	}
}

func TestParseMessage_EngineIOv4(t *testing.T) {
	packets := ParseMessage("42[\"data\",\"a\"]\x1e42[\"data\",\"b\"]")
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
}

func TestParseMessage_SocketIOv0(t *testing.T) {
	msg := "�7�42[\"data\",\"x\"]"
	packets := ParseMessage(msg)
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1: %v", len(packets), packets)
	}
	ev, ok := DecodePacket(packets[0])
	if !ok || ev.Data != "x" {
		t.Fatalf("decoded = %+v, ok=%v", ev, ok)
	}
}

func TestParseMessage_SinglePacket(t *testing.T) {
	packets := ParseMessage(`42["data","z"]`)
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
}

func TestDecodePacket_Resize(t *testing.T) {
	ev, ok := DecodePacket(`42["resize",{"cols":100,"rows":40}]`)
	if !ok || ev.Name != "resize" || ev.Cols != 100 || ev.Rows != 40 {
		t.Fatalf("decoded = %+v, ok=%v", ev, ok)
	}
}

func TestDecodePacket_AckForm(t *testing.T) {
	ev, ok := DecodePacket(`5:1:x:{"name":"data","args":["y"]}`)
	if !ok || ev.Data != "y" {
		t.Fatalf("decoded = %+v, ok=%v", ev, ok)
	}
}

func TestDecodePacket_Unrecognized(t *testing.T) {
	if _, ok := DecodePacket("3probe"); ok {
		t.Fatal("pong/probe packet should not decode to an event")
	}
}
