package models

// DefaultVehicles is the fleet a fresh dashboard starts with when storage
// holds no vehicle collection. A new slice is returned on every call.
func DefaultVehicles() []Vehicle {
	return []Vehicle{
		{
			ID:              "1",
			PlateNumber:     "京A-6721ZX",
			Model:           "Model 3",
			Make:            "Tesla",
			Year:            2022,
			Status:          StatusActive,
			Mileage:         12500,
			LastServiceDate: "2023-11-15",
			DriverName:      "Zhang San",
			Image:           "https://picsum.photos/seed/tesla/400/300",
		},
		{
			ID:              "2",
			PlateNumber:     "沪B-882AB",
			Model:           "F-150 Lightning",
			Make:            "Ford",
			Year:            2023,
			Status:          StatusMaintenance,
			Mileage:         4200,
			LastServiceDate: "2024-01-20",
			DriverName:      "Li Si",
			Image:           "https://picsum.photos/seed/ford/400/300",
		},
		{
			ID:              "3",
			PlateNumber:     "粤Z-104CC",
			Model:           "Sprinter",
			Make:            "Mercedes-Benz",
			Year:            2021,
			Status:          StatusActive,
			Mileage:         45600,
			LastServiceDate: "2023-09-10",
			DriverName:      "Wang Wu",
			Image:           "https://picsum.photos/seed/mercedes/400/300",
		},
	}
}
