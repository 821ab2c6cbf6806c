// Package listing saves listings through the save hooks.
package listing
