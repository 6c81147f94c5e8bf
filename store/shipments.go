package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Shipment struct {
	ID                   int64           `json:"id"`
	ShipmentNumber       string          `json:"shipment_number"`
	ProductID            int64           `json:"product_id"`
	FinishedGoodID       *int64          `json:"finished_good_id,omitempty"`
	Quantity             decimal.Decimal `json:"quantity"`
	CustomerName         string          `json:"customer_name"`
	CustomerContact      string          `json:"customer_contact"`
	DestinationAddress   string          `json:"destination_address"`
	DestinationCity      string          `json:"destination_city"`
	DestinationZone      string          `json:"destination_zone"`
	Status               string          `json:"status"`
	ShipmentDate         time.Time       `json:"shipment_date"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time      `json:"actual_delivery_date,omitempty"`
	Notes                string          `json:"notes"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

const shipmentSelectCols = `id, shipment_number, product_id, finished_good_id, quantity, customer_name, customer_contact, destination_address, destination_city, destination_zone, status, shipment_date, expected_delivery_date, actual_delivery_date, notes, created_at, updated_at`

func scanShipment(row interface{ Scan(...any) error }) (*Shipment, error) {
	var s Shipment
	var batchID sql.NullInt64
	var shipmentDate, expected, actual, createdAt, updatedAt any
	err := row.Scan(&s.ID, &s.ShipmentNumber, &s.ProductID, &batchID, &s.Quantity,
		&s.CustomerName, &s.CustomerContact, &s.DestinationAddress, &s.DestinationCity, &s.DestinationZone,
		&s.Status, &shipmentDate, &expected, &actual, &s.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	s.FinishedGoodID = idPtr(batchID)
	s.ShipmentDate = parseTime(shipmentDate)
	s.ExpectedDeliveryDate = parseTimePtr(expected)
	s.ActualDeliveryDate = parseTimePtr(actual)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func scanShipments(rows *sql.Rows) ([]*Shipment, error) {
	var shipments []*Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

func (db *DB) CreateShipment(s *Shipment) error {
	id, err := db.insertID(context.Background(), db.DB,
		`INSERT INTO shipments (shipment_number, product_id, finished_good_id, quantity, customer_name, customer_contact, destination_address, destination_city, destination_zone, status, shipment_date, expected_delivery_date, actual_delivery_date, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ShipmentNumber, s.ProductID, nullID(s.FinishedGoodID), s.Quantity,
		s.CustomerName, s.CustomerContact, s.DestinationAddress, s.DestinationCity, s.DestinationZone,
		s.Status, dbTime(s.ShipmentDate), dbTimePtr(s.ExpectedDeliveryDate), dbTimePtr(s.ActualDeliveryDate), s.Notes)
	if err != nil {
		return fmt.Errorf("create shipment: %w", err)
	}
	s.ID = id
	return nil
}

// UpdateShipment replaces every mutable field, status included, on a
// shipment still in status from. Otherwise it fails with ErrStatusChanged.
func (db *DB) UpdateShipment(s *Shipment, from string) error {
	res, err := db.Exec(db.Q(`UPDATE shipments SET product_id=?, finished_good_id=?, quantity=?, customer_name=?, customer_contact=?, destination_address=?, destination_city=?, destination_zone=?, status=?, shipment_date=?, expected_delivery_date=?, actual_delivery_date=?, notes=?, updated_at=datetime('now','localtime') WHERE id=? AND status=?`),
		s.ProductID, nullID(s.FinishedGoodID), s.Quantity,
		s.CustomerName, s.CustomerContact, s.DestinationAddress, s.DestinationCity, s.DestinationZone,
		s.Status, dbTime(s.ShipmentDate), dbTimePtr(s.ExpectedDeliveryDate), dbTimePtr(s.ActualDeliveryDate), s.Notes, s.ID, from)
	if err != nil {
		return err
	}
	return statusGuard(res, "shipment", s.ID)
}

func (db *DB) GetShipment(id int64) (*Shipment, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM shipments WHERE id=?`, shipmentSelectCols)), id)
	s, err := scanShipment(row)
	if err != nil {
		return nil, notFound(err, "shipment", id)
	}
	return s, nil
}

func (db *DB) ListShipments() ([]*Shipment, error) {
	rows, err := db.Query(fmt.Sprintf(`SELECT %s FROM shipments ORDER BY shipment_date DESC, id DESC`, shipmentSelectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShipments(rows)
}

func (db *DB) ListShipmentsByStatus(status string) ([]*Shipment, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM shipments WHERE status=? ORDER BY shipment_date, id`, shipmentSelectCols)), status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShipments(rows)
}

// ListShipmentsByDateRange returns shipments whose shipment date falls in
// [from, to], both inclusive.
func (db *DB) ListShipmentsByDateRange(from, to time.Time) ([]*Shipment, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM shipments WHERE shipment_date >= ? AND shipment_date <= ? ORDER BY shipment_date, id`, shipmentSelectCols)),
		dbTime(from), dbTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShipments(rows)
}
