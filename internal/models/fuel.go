package models

// FuelLog records a refuelling. No store operation mutates fuel logs yet;
// they are loaded from storage and exposed read-only.
type FuelLog struct {
	ID            string  `json:"id" bson:"id" validate:"required"`
	VehicleID     string  `json:"vehicleId" bson:"vehicle_id" validate:"required"`
	Date          string  `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Liters        float64 `json:"liters" bson:"liters" validate:"gte=0"`
	Cost          float64 `json:"cost" bson:"cost" validate:"gte=0"`
	MileageAtFill int     `json:"mileageAtFill" bson:"mileage_at_fill" validate:"gte=0"`
}
