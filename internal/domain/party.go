package domain

type Customer struct {
	ID    int64  `json:"customers_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (c Customer) Key() int64    { return c.ID }
func (c Customer) Label() string { return c.Name }

func (c Customer) WithKey(id int64) Customer {
	c.ID = id
	return c
}

func (c Customer) Validate() error {
	var v ValidationError
	required(&v, "name", c.Name, "Please input the customer name!")
	required(&v, "email", c.Email, "Please input the customer email!")
	required(&v, "phone", c.Phone, "Please input the customer phone!")
	return v.Err()
}

type Employee struct {
	ID       int64  `json:"employees_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Email    string `json:"email"`
}

func (e Employee) Key() int64    { return e.ID }
func (e Employee) Label() string { return e.Name }

func (e Employee) WithKey(id int64) Employee {
	e.ID = id
	return e
}

func (e Employee) Validate() error {
	var v ValidationError
	required(&v, "name", e.Name, "Please input the name!")
	required(&v, "position", e.Position, "Please input the position!")
	required(&v, "email", e.Email, "Please input the email!")
	return v.Err()
}

type PaymentMethod struct {
	ID   int64  `json:"payment_methods_id"`
	Name string `json:"method_name"`
}

func (p PaymentMethod) Key() int64    { return p.ID }
func (p PaymentMethod) Label() string { return p.Name }

func (p PaymentMethod) WithKey(id int64) PaymentMethod {
	p.ID = id
	return p
}

func (p PaymentMethod) Validate() error {
	var v ValidationError
	required(&v, "method_name", p.Name, "Please input the payment method name!")
	return v.Err()
}

type OrderStatus struct {
	ID    int64  `json:"orders_status_id"`
	Label string `json:"status_name"`
}
