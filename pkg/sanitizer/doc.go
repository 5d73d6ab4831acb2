// Package sanitizer normalizes user input before validation and storage.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// the input trimmed or an empty value rather than an error, and leave rejection to
// the validators.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Emails: Trim and lowercase
//   - Slugs: Lowercase letters and digits joined by hyphens - "Lake Como Walk" becomes "lake-como-walk"
//   - Slices: Remove duplicates and empty values after normalization
//   - Travelers: All of the above applied to every traveler of a booking
package sanitizer
