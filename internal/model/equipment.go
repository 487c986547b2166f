package model

import "time"

// Equipment unit statuses.  The column caches "is this unit claimable
// right now" and is mutated in lockstep with reservation transitions,
// inside the same transaction that locks the unit row.
const (
    UnitAvailable   = "available"
    UnitPending     = "pending"
    UnitReserved    = "reserved"
    UnitMaintenance = "maintenance"
)

// EquipmentType describes a category of equipment (e.g. "Dell Vostro
// notebook") whose physical instances live in equipment_units.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique type name.
//  Description – optional free-text description.
//  Category    – coarse grouping used for filtering (e.g. "notebook").
//  CreatedAt   – creation timestamp.
type EquipmentType struct {
    ID          uint64    // equipment_types.id
    Name        string    // equipment_types.name
    Description *string   // equipment_types.description (nullable)
    Category    string    // equipment_types.category
    CreatedAt   time.Time // equipment_types.created_at
}

// EquipmentUnit is one physical item of an equipment type, the thing that
// is actually lent out.  IdentifierCode and SerialNumber are both unique.
//
// Fields:
//  ID             – primary key identifier.
//  TypeID         – parent equipment type.
//  IdentifierCode – unique asset tag.
//  SerialNumber   – unique manufacturer serial.
//  Status         – available, pending, reserved or maintenance.
type EquipmentUnit struct {
    ID             uint64 // equipment_units.id
    TypeID         uint64 // equipment_units.type_id
    IdentifierCode string // equipment_units.identifier_code
    SerialNumber   string // equipment_units.serial_number
    Status         string // equipment_units.status
}

// TypeStats aggregates a type's unit counts per status for listings.
type TypeStats struct {
    Type             EquipmentType
    TotalUnits       int
    AvailableUnits   int
    ReservedUnits    int // includes units in pending status
    MaintenanceUnits int
}
