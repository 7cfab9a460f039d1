// Package events broadcasts order, table and bill lifecycle changes to
// connected websocket clients (kitchen display, floor staff, cashier).
package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dinehub/restaurant-pos/models"
)

// Event types
const (
	EventOrderCreated  = "order_created"
	EventOrderUpdated  = "order_updated"
	EventTableUpdated  = "table_updated"
	EventBillGenerated = "bill_generated"
	EventBillSettled   = "bill_settled"
	EventKOTPrinted    = "kot_printed"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected client with its role. Broadcasts go to all
// clients; a write failure drops only that client.
type Hub struct {
	clients map[*websocket.Conn]string
	mu      sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// OrderCreated announces a new order.
func OrderCreated(order models.Order) {
	broadcast(Message{Event: EventOrderCreated, Data: order})
}

// OrderUpdated announces a status change or item mutation.
func OrderUpdated(order models.Order) {
	broadcast(Message{Event: EventOrderUpdated, Data: order})
}

// TableUpdated announces an occupancy change.
func TableUpdated(table models.Table) {
	broadcast(Message{Event: EventTableUpdated, Data: table})
}

// BillGenerated announces a freshly generated bill.
func BillGenerated(bill models.Bill) {
	broadcast(Message{Event: EventBillGenerated, Data: bill})
}

// BillSettled announces a fully paid bill.
func BillSettled(bill models.Bill) {
	broadcast(Message{Event: EventBillSettled, Data: bill})
}

// KOTPrinted announces a kitchen ticket print.
func KOTPrinted(order models.Order) {
	broadcast(Message{Event: EventKOTPrinted, Data: order})
}

func broadcast(msg Message) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
