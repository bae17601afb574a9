package model

// User represents an account record as stored in the `users` table.
// The password hash never leaves the repository and handler layers; API
// responses are built from dedicated response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
type User struct {
    ID           uint64 // users.id
    Username     string // users.username
    Email        string // users.email
    PasswordHash string // users.password_hash
}
