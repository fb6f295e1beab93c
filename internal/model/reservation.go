package model

// Reservation books seats at a meal for one contact.
type Reservation struct {
	ID                 int64  `db:"id" json:"id"`
	MealID             int64  `db:"meal_id" json:"meal_id"`
	ContactName        string `db:"contact_name" json:"contact_name"`
	ContactPhoneNumber string `db:"contact_phone_number" json:"contact_phone_number"`
	ContactEmail       string `db:"contact_email" json:"contact_email"`
	NumberOfGuests     int    `db:"number_of_guests" json:"number_of_guests"`
	CreatedDate        Date   `db:"created_date" json:"created_date"`
}

// ReservationPatch carries the fields of a partial reservation update.
type ReservationPatch struct {
	MealID             *int64
	ContactName        *string
	ContactPhoneNumber *string
	ContactEmail       *string
	NumberOfGuests     *int
	CreatedDate        *Date
}

func (p ReservationPatch) Empty() bool {
	return p.MealID == nil && p.ContactName == nil && p.ContactPhoneNumber == nil &&
		p.ContactEmail == nil && p.NumberOfGuests == nil && p.CreatedDate == nil
}
