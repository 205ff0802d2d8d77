package model

import "time"

// Employment type values stored in employments.employment_type.
const (
    EmploymentTypeFullTime   = "full_time"
    EmploymentTypePartTime   = "part_time"
    EmploymentTypeContract   = "contract"
    EmploymentTypeFreelance  = "freelance"
    EmploymentTypeInternship = "internship"
)

// Employment status values stored in employments.employment_status.
const (
    EmploymentStatusCurrent = "current"
    EmploymentStatusEnded   = "ended"
    EmploymentStatusOnLeave = "on_leave"
)

// Employment represents one proof-of-employment record owned by an
// employee.  The redemption engine reads these records read-only to
// build the disclosure snapshot returned to employers; no redemption
// path ever mutates an employment row.
//
// Fields:
//  ID               – primary key identifier.
//  EmployeeID       – owning employee (users.id).
//  CompanyName      – employer company name.
//  CompanyLocation  – optional company location.
//  JobTitle         – position held.
//  Department       – optional department name.
//  EmploymentType   – one of the EmploymentType* constants.
//  EmploymentStatus – one of the EmploymentStatus* constants.
//  StartDate        – employment start.
//  EndDate          – employment end (nil while current).
//  IsVerified       – whether the record was verified out of band.
//  VerificationDate – when verification happened, if ever.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Employment struct {
    ID               uint64     // employments.id
    EmployeeID       uint64     // employments.employee_id
    CompanyName      string     // employments.company_name
    CompanyLocation  *string    // employments.company_location (nullable)
    JobTitle         string     // employments.job_title
    Department       *string    // employments.department (nullable)
    EmploymentType   string     // employments.employment_type
    EmploymentStatus string     // employments.employment_status
    StartDate        time.Time  // employments.start_date
    EndDate          *time.Time // employments.end_date (nullable)
    IsVerified       bool       // employments.is_verified
    VerificationDate *time.Time // employments.verification_date (nullable)
    CreatedAt        time.Time  // employments.created_at
    UpdatedAt        time.Time  // employments.updated_at
}
