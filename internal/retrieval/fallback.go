package retrieval

// FallbackGuidelines is indexed when no guidelines document is available. It summarizes
// the South African National Department of Health HIV and mental-health guidance.
const FallbackGuidelines = `
SOUTH AFRICAN NATIONAL DEPARTMENT OF HEALTH HIV GUIDELINES

HIV Testing: Universal testing is recommended for all sexually active individuals.
High-risk populations, including sex workers, MSM, people who inject drugs and people
with multiple partners, should be tested routinely every 3-6 months.

PrEP (Pre-Exposure Prophylaxis): Recommended for HIV-negative individuals at substantial
risk. Daily oral tenofovir-based PrEP reduces the risk of infection by more than 90%.
Eligible groups include serodiscordant couples, sex workers, MSM and people with a
recent STI diagnosis.

PEP (Post-Exposure Prophylaxis): Must be started within 72 hours of a potential exposure.
A 28-day course of antiretroviral therapy is available at all public facilities.

STI Management: Use the syndromic management approach. Partner notification and
treatment are essential. Screen high-risk groups regularly.

MENTAL HEALTH GUIDELINES

Primary Mental Healthcare: Mental health services are integrated into primary care.
PHC nurses are trained to identify and manage common mental disorders.

Depression and Anxiety: Provide counseling, psychosocial support and medication where
appropriate. Refer moderate to severe cases to mental health specialists.

Crisis Intervention: Assess suicidal ideation or psychosis immediately. 24/7 crisis
helplines are available, with psychiatric emergency services at district hospitals.

Community-Based Care: Home-based care teams, support groups and peer counseling
programmes. Family involvement is encouraged.

Integrated Care: Screen for mental health in HIV clinics and for HIV in mental health
services. Take a holistic, patient-centred approach that addresses comorbidities.
`
