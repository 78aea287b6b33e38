// ABOUTME: SQLite implementation for device registration
// ABOUTME: Devices link submitted usage sessions to the owning user

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateDevice registers a new device for a user.
func (s *SQLiteStore) CreateDevice(ctx context.Context, device *Device) error {
	query := `
		INSERT INTO devices (id, user_id, device_type, os_version, registered_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		device.ID,
		device.UserID,
		device.DeviceType,
		nullString(device.OSVersion),
		formatTime(device.RegisteredAt),
	)
	if err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}

	s.logger.Debug("registered device",
		"id", device.ID,
		"user_id", device.UserID,
		"device_type", device.DeviceType,
	)
	return nil
}

// GetDevice retrieves a device by ID. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetDevice(ctx context.Context, id string) (*Device, error) {
	query := `SELECT id, user_id, device_type, os_version, registered_at FROM devices WHERE id = ?`

	device, err := scanDevice(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return device, nil
}

// DevicesByUser retrieves all devices registered by a user, oldest first.
func (s *SQLiteStore) DevicesByUser(ctx context.Context, userID string) ([]*Device, error) {
	query := `
		SELECT id, user_id, device_type, os_version, registered_at
		FROM devices
		WHERE user_id = ?
		ORDER BY registered_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var devices []*Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}

	return devices, nil
}

// scanDevice scans a device from a row scanner.
func scanDevice(row interface{ Scan(...any) error }) (*Device, error) {
	var device Device
	var osVersion sql.NullString
	var registeredStr string

	err := row.Scan(&device.ID, &device.UserID, &device.DeviceType, &osVersion, &registeredStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning device row: %w", err)
	}

	if osVersion.Valid {
		device.OSVersion = osVersion.String
	}
	if device.RegisteredAt, err = parseTime(registeredStr); err != nil {
		return nil, err
	}

	return &device, nil
}

// Ensure SQLiteStore implements DeviceStore interface.
var _ DeviceStore = (*SQLiteStore)(nil)
