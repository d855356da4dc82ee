package listing

import "github.com/locallink/backend/internal/shape"

// ExtractionRequest carries the free text a provider typed into the assistant.
type ExtractionRequest struct {
	UserInput string `json:"userInput"`
}

// Fields are the listing attributes the assistant may extract. Empty means "not mentioned".
type Fields struct {
	Name         string `json:"name,omitempty"`
	ServiceName  string `json:"serviceName,omitempty"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	Availability string `json:"availability,omitempty"`
	Charges      string `json:"charges,omitempty"`
	Contact      string `json:"contact,omitempty"`
}

// Draft is the result of one extraction call.
type Draft struct {
	Fields
	ResponseText string `json:"responseText"`
}

// Empty reports whether no attribute was extracted.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Profile is the optional signed-in user context merged into the form.
type Profile struct {
	DisplayName string `json:"displayName,omitempty"`
	Location    string `json:"location,omitempty"`
}

// FormValues are the initial values handed to the listing-creation form.
type FormValues struct {
	Name         string `json:"name"`
	ServiceName  string `json:"serviceName"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Availability string `json:"availability"`
	Charges      string `json:"charges"`
	Contact      string `json:"contact"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// FormValues merges the extracted fields with the profile; extracted values win.
func (f Fields) FormValues(profile Profile) FormValues {
	values := FormValues{
		Name:         f.Name,
		ServiceName:  f.ServiceName,
		Description:  f.Description,
		Location:     f.Location,
		Availability: f.Availability,
		Charges:      f.Charges,
		Contact:      f.Contact,
	}
	if values.Name == "" {
		values.Name = profile.DisplayName
	}
	if values.Location == "" {
		values.Location = profile.Location
	}
	return values
}

// ExtractionRequestShape validates the outbound extraction request.
var ExtractionRequestShape = shape.Shape{
	Name: "GuideListingCreationInput",
	Fields: []shape.Field{
		{Name: "userInput", Kind: shape.String, Required: true, Description: "The user input describing the service or product they want to offer."},
	},
}

// DraftShape is the structured output expected from the extraction prompt.
var DraftShape = shape.Shape{
	Name: "GuideListingCreationOutput",
	Fields: []shape.Field{
		{Name: "name", Kind: shape.String, Description: "The full name of the person offering the service."},
		{Name: "serviceName", Kind: shape.String, Description: "The name of the service or product being offered."},
		{Name: "description", Kind: shape.String, Description: "A detailed description of the service or product."},
		{Name: "location", Kind: shape.String, Description: "The location (PIN code or area) where the service is offered."},
		{Name: "availability", Kind: shape.String, Description: "The days and times the service is available (e.g., 'Mon-Fri, 9am-5pm')."},
		{Name: "charges", Kind: shape.String, Description: "The charges for the service (e.g., '$50/hour', 'Starts from $20')."},
		{Name: "contact", Kind: shape.String, Description: "The contact information (phone number or email) for the provider."},
		{Name: "responseText", Kind: shape.String, Required: true, Description: "A friendly response to the user, confirming what was understood and suggesting to finalize the listing in the form."},
	},
}
